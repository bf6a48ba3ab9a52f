package directory

import "strings"

// The directory API speaks collection+json: every response wraps a list of
// items, each carrying name/value data fields and rel/href links.

type document struct {
	Collection collection `json:"collection"`
}

type collection struct {
	Items []item `json:"items"`
}

type item struct {
	Href  string  `json:"href"`
	Data  []field `json:"data"`
	Links []link  `json:"links"`
}

type field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// personLink returns the first link with rel "person" across all items.
func (d document) personLink() string {
	for _, it := range d.Collection.Items {
		for _, l := range it.Links {
			if l.Rel == "person" {
				return l.Href
			}
		}
	}
	return ""
}

// parsePerson extracts person fields from a document. The first name field
// is split at the first space: the head becomes the given name, the rest
// the additional name.
func parsePerson(id string, doc document) Person {
	p := Person{ID: id}
	for _, it := range doc.Collection.Items {
		for _, f := range it.Data {
			switch f.Name {
			case "email":
				p.Email = f.Value
			case "phone", "telephone", "phone_number":
				p.Phone = f.Value
			case "first_name":
				first := strings.TrimSpace(f.Value)
				if first == "" {
					continue
				}
				given, additional, found := strings.Cut(first, " ")
				p.GivenName = given
				if found {
					p.AdditionalName = additional
				}
			case "last_name":
				p.FamilyName = strings.TrimSpace(f.Value)
			}
		}
	}
	return p
}

// lastPathSegment extracts the trailing segment of a URL path, which the
// directory uses as the resource ID.
func lastPathSegment(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
