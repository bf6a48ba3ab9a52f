package checks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdata/metasync/pkg/checks"
	"github.com/civicdata/metasync/pkg/reconcile"
)

func TestUserAccountsCreatesEditorForPostHolder(t *testing.T) {
	h := newHarness(t)
	h.rows["personsWithPosts"] = `[
		{"person_uuid": "p-alice", "given_name": "Alice", "family_name": "Exampleton", "sk_person_id": "\"42\"", "posts_count": "2"}
	]`
	h.env.DirectoryEmails["42"] = "alice@example.org"
	h.responses["POST /rest/prod/users"] = `{"id": "u-alice"}`

	result := runCheck(t, h, &checks.UserAccounts{})

	require.Equal(t, reconcile.StatusSuccess, result.Status)
	require.Len(t, result.Issues, 1)
	issue := result.Issues[0]
	assert.Equal(t, reconcile.IssueUserCreated, issue.Type)
	assert.True(t, issue.Fixed())
	assert.Equal(t, "u-alice", issue.UserUUID)
	assert.Equal(t, "EDITOR", issue.AccessLevel)

	posts := h.written("POST", "/rest/prod/users")
	require.Len(t, posts, 1)
	assert.Equal(t, "alice@example.org", posts[0].Body["loginId"])
	assert.Equal(t, "EDITOR", posts[0].Body["accessLevel"])
	assert.Equal(t, "Exampleton, Alice", posts[0].Body["isPerson"])
}

func TestUserAccountsCreatesReadOnlyWithoutPosts(t *testing.T) {
	h := newHarness(t)
	h.rows["personsWithPosts"] = `[
		{"person_uuid": "p-bob", "given_name": "Bob", "family_name": "Muster", "sk_person_id": "\"43\"", "posts_count": "0"}
	]`
	h.env.DirectoryEmails["43"] = "bob@example.org"
	h.responses["POST /rest/prod/users"] = `{"id": "u-bob"}`

	result := runCheck(t, h, &checks.UserAccounts{})

	require.Len(t, result.Issues, 1)
	assert.Equal(t, "READ_ONLY", result.Issues[0].AccessLevel)
}

func TestUserAccountsMissingEmail(t *testing.T) {
	h := newHarness(t)
	h.rows["personsWithPosts"] = `[
		{"person_uuid": "p-alice", "given_name": "Alice", "family_name": "Exampleton", "sk_person_id": "\"42\"", "posts_count": "1"}
	]`

	result := runCheck(t, h, &checks.UserAccounts{})

	require.Equal(t, reconcile.StatusWarning, result.Status)
	require.Len(t, result.Issues, 1)
	issue := result.Issues[0]
	assert.Equal(t, reconcile.IssuePersonMissingEmail, issue.Type)
	assert.False(t, issue.Attempted)
	assert.Empty(t, h.written("POST", "/rest/prod/users"))
}

func TestUserAccountsMatchesLoginCaseInsensitively(t *testing.T) {
	h := newHarness(t)
	h.rows["personsWithPosts"] = `[
		{"person_uuid": "p-alice", "given_name": "Alice", "family_name": "Exampleton", "sk_person_id": "\"42\"", "posts_count": "1"}
	]`
	h.rows["users"] = `[
		{"user_uuid": "u-alice", "email": "Alice@Example.org", "access_level": "EDITOR", "linked_person_uuid": "p-alice"}
	]`
	h.env.DirectoryEmails["42"] = "alice@example.org"

	result := runCheck(t, h, &checks.UserAccounts{})

	assert.Empty(t, result.Issues)
	assert.Empty(t, h.written("POST", "/rest/prod/users"))
}

func TestUserAccountsFixesPersonLink(t *testing.T) {
	h := newHarness(t)
	h.rows["personsWithPosts"] = `[
		{"person_uuid": "p-alice", "given_name": "Alice", "family_name": "Exampleton", "sk_person_id": "\"42\"", "posts_count": "1"}
	]`
	h.rows["users"] = `[
		{"user_uuid": "u-alice", "email": "alice@example.org", "access_level": "EDITOR", "linked_person_uuid": "p-other"}
	]`
	h.env.DirectoryEmails["42"] = "alice@example.org"

	result := runCheck(t, h, &checks.UserAccounts{})

	require.Len(t, result.Issues, 1)
	issue := result.Issues[0]
	assert.Equal(t, reconcile.IssueUserPersonLinkUpdated, issue.Type)
	assert.True(t, issue.Fixed())

	patches := h.written("PATCH", "/rest/prod/users/u-alice")
	require.Len(t, patches, 1)
	assert.Equal(t, "Exampleton, Alice", patches[0].Body["isPerson"])
}

func TestUserAccountsAccessLevels(t *testing.T) {
	t.Run("post holder raised to editor", func(t *testing.T) {
		h := newHarness(t)
		h.rows["personsWithPosts"] = `[
			{"person_uuid": "p-alice", "given_name": "Alice", "family_name": "Exampleton", "sk_person_id": "\"42\"", "posts_count": "1"}
		]`
		h.rows["users"] = `[
			{"user_uuid": "u-alice", "email": "alice@example.org", "access_level": "READ_ONLY", "linked_person_uuid": "p-alice"}
		]`
		h.env.DirectoryEmails["42"] = "alice@example.org"

		result := runCheck(t, h, &checks.UserAccounts{})

		require.Len(t, result.Issues, 1)
		issue := result.Issues[0]
		assert.Equal(t, reconcile.IssueAccessLevelUpdated, issue.Type)
		assert.True(t, issue.Fixed())
		assert.Equal(t, "EDITOR", issue.AccessLevel)

		patches := h.written("PATCH", "/rest/prod/users/u-alice")
		require.Len(t, patches, 1)
		assert.Equal(t, "EDITOR", patches[0].Body["accessLevel"])
	})

	t.Run("editor without posts demoted", func(t *testing.T) {
		h := newHarness(t)
		h.rows["personsWithPosts"] = `[
			{"person_uuid": "p-bob", "given_name": "Bob", "family_name": "Muster", "sk_person_id": "\"43\"", "posts_count": "0"}
		]`
		h.rows["users"] = `[
			{"user_uuid": "u-bob", "email": "bob@example.org", "access_level": "EDITOR", "linked_person_uuid": "p-bob"}
		]`
		h.env.DirectoryEmails["43"] = "bob@example.org"

		result := runCheck(t, h, &checks.UserAccounts{})

		require.Len(t, result.Issues, 1)
		assert.Equal(t, "READ_ONLY", result.Issues[0].AccessLevel)
	})

	t.Run("administrator never demoted", func(t *testing.T) {
		h := newHarness(t)
		h.rows["personsWithPosts"] = `[
			{"person_uuid": "p-bob", "given_name": "Bob", "family_name": "Muster", "sk_person_id": "\"43\"", "posts_count": "0"}
		]`
		h.rows["users"] = `[
			{"user_uuid": "u-bob", "email": "bob@example.org", "access_level": "ADMIN", "linked_person_uuid": "p-bob"}
		]`
		h.env.DirectoryEmails["43"] = "bob@example.org"

		result := runCheck(t, h, &checks.UserAccounts{})

		assert.Empty(t, result.Issues)
		assert.Empty(t, h.written("PATCH", "/rest/prod/users/u-bob"))
	})
}
