package checks

// SQL sent to the catalog's declarative query endpoint. Custom property
// values come back quoted; catalog.Row.Get unquotes them.

const personsWithDirectoryIDQuery = `
SELECT
    p.id AS person_uuid,
    p.given_name,
    p.family_name,
    cp.value AS sk_person_id
FROM
    person_view p
JOIN
    customproperties_view cp ON p.id = cp.resource_id AND cp.name = 'sk_person_id'
WHERE
    cp.value IS NOT NULL
ORDER BY
    cp.value, p.family_name, p.given_name
`

const postsWithMembershipIDsQuery = `
SELECT
    p.id AS post_uuid,
    p.label AS post_label,
    cp1.value AS membership_id,
    cp2.value AS second_membership_id
FROM
    post_view p
LEFT JOIN
    customproperties_view cp1 ON p.id = cp1.resource_id AND cp1.name = 'membership_id'
LEFT JOIN
    customproperties_view cp2 ON p.id = cp2.resource_id AND cp2.name = 'second_membership_id'
WHERE
    cp1.value IS NOT NULL OR cp2.value IS NOT NULL
ORDER BY
    p.label
`

// Post assignment eligibility uses the sk_-prefixed property names; the
// membership properties above predate the prefix and were never renamed.
const postsWithSkMembershipIDsQuery = `
SELECT
    p.id AS post_uuid,
    p.label AS post_label,
    cp1.value AS sk_membership_id,
    cp2.value AS sk_second_membership_id
FROM
    post_view p
LEFT JOIN
    customproperties_view cp1 ON p.id = cp1.resource_id AND cp1.name = 'sk_membership_id'
LEFT JOIN
    customproperties_view cp2 ON p.id = cp2.resource_id AND cp2.name = 'sk_second_membership_id'
WHERE
    cp1.value IS NOT NULL OR cp2.value IS NOT NULL
ORDER BY
    p.label
`

const currentAssignmentsQuery = `
SELECT
    p.id AS person_uuid,
    p.given_name AS first_name,
    p.family_name AS last_name,
    post.label AS post_label,
    post.id AS post_uuid
FROM
    person_view p
JOIN
    holdspost_view hp ON p.id = hp.resource_id
JOIN
    post_view post ON post.id = hp.holds_post
`

const allPersonsQuery = `
SELECT
    p.id AS person_uuid,
    p.given_name,
    p.family_name
FROM
    person_view p
ORDER BY
    p.family_name, p.given_name
`

const unoccupiedPostsQuery = `
SELECT
    p.id AS post_uuid,
    p.label AS post_label
FROM
    post_view p
WHERE
    NOT EXISTS (
        SELECT 1
        FROM holdspost_view h
        WHERE h.holds_post = p.id
    )
ORDER BY
    p.label
`

const personsWithPostCountQuery = `
SELECT
    p.id AS person_uuid,
    p.given_name,
    p.family_name,
    cp.value AS sk_person_id,
    COUNT(DISTINCT hp.holds_post) AS posts_count
FROM
    person_view p
JOIN
    customproperties_view cp ON p.id = cp.resource_id AND cp.name = 'sk_person_id'
LEFT JOIN
    holdspost_view hp ON p.id = hp.resource_id
GROUP BY
    p.id, p.given_name, p.family_name, cp.value
ORDER BY
    p.family_name, p.given_name
`

const nonServiceUsersQuery = `
SELECT
    u.id AS user_uuid,
    u.login_id AS email,
    u.access_level,
    u.is_person AS linked_person_uuid,
    u.name AS display_name
FROM
    user_view u
WHERE
    u.service_user IS NULL OR u.service_user = false
ORDER BY
    u.login_id
`

const personsWithContactPropertiesQuery = `
SELECT
    p.id AS person_uuid,
    p.given_name,
    p.family_name,
    p.additional_name,
    cp_sk.value AS sk_person_id,
    cp_email.value AS email_custom_property,
    cp_phone.value AS phone,
    cp_website.value AS state_calendar_website,
    cp_teams.value AS teams
FROM
    person_view p
JOIN
    customproperties_view cp_sk ON p.id = cp_sk.resource_id AND cp_sk.name = 'sk_person_id'
LEFT JOIN
    customproperties_view cp_email ON p.id = cp_email.resource_id AND cp_email.name = 'email_custom_property'
LEFT JOIN
    customproperties_view cp_phone ON p.id = cp_phone.resource_id AND cp_phone.name = 'phone'
LEFT JOIN
    customproperties_view cp_website ON p.id = cp_website.resource_id AND cp_website.name = 'state_calendar_website'
LEFT JOIN
    customproperties_view cp_teams ON p.id = cp_teams.resource_id AND cp_teams.name = 'teams'
WHERE
    cp_sk.value IS NOT NULL
ORDER BY
    p.family_name, p.given_name
`
