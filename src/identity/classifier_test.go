package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdminClassifier_AllowList(t *testing.T) {
	classifier := NewAdminClassifier([]string{"dean@gracecoe.org", "placement.officer@gracecoe.org"})

	assert.True(t, classifier.IsAdmin(Signals{Email: "dean@gracecoe.org"}))
	assert.False(t, classifier.IsAdmin(Signals{Email: "student@gracecoe.org"}))
}

func TestAdminClassifier_CaseInsensitive(t *testing.T) {
	classifier := NewAdminClassifier([]string{"Dean@GraceCoe.org"})

	assert.True(t, classifier.IsAdmin(Signals{Email: "dean@gracecoe.org"}))
	assert.True(t, classifier.IsAdmin(Signals{Email: "DEAN@GRACECOE.ORG"}))
}

func TestAdminClassifier_MetadataFlag(t *testing.T) {
	classifier := NewAdminClassifier(nil)

	assert.True(t, classifier.IsAdmin(Signals{Email: "anyone@example.com", MetadataFlag: true}))
	assert.True(t, classifier.IsAdmin(Signals{MetadataFlag: true}))
}

func TestAdminClassifier_StoredFlag(t *testing.T) {
	classifier := NewAdminClassifier(nil)

	assert.True(t, classifier.IsAdmin(Signals{Email: "anyone@example.com", StoredFlag: true}))
}

func TestAdminClassifier_Monotonicity(t *testing.T) {
	// Any single true signal grants admin; all false denies.
	classifier := NewAdminClassifier([]string{"dean@gracecoe.org"})

	cases := []struct {
		name    string
		signals Signals
		want    bool
	}{
		{"all absent", Signals{Email: "student@example.com"}, false},
		{"metadata only", Signals{Email: "student@example.com", MetadataFlag: true}, true},
		{"stored only", Signals{Email: "student@example.com", StoredFlag: true}, true},
		{"allow-list only", Signals{Email: "dean@gracecoe.org"}, true},
		{"all true", Signals{Email: "dean@gracecoe.org", MetadataFlag: true, StoredFlag: true}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifier.IsAdmin(tc.signals))
		})
	}
}

func TestAdminClassifier_MissingEmail(t *testing.T) {
	classifier := NewAdminClassifier([]string{"dean@gracecoe.org"})

	assert.False(t, classifier.IsAdmin(Signals{}))
}

func TestAdminClassifier_SubstringDoesNotQualify(t *testing.T) {
	// Membership is exact; an email merely containing "admin" or sharing
	// the domain is not enough.
	classifier := NewAdminClassifier([]string{"admin@gracecoe.org"})

	assert.False(t, classifier.IsAdmin(Signals{Email: "notadmin@gracecoe.org"}))
	assert.False(t, classifier.IsAdmin(Signals{Email: "admin@elsewhere.org"}))
	assert.True(t, classifier.IsAdmin(Signals{Email: "admin@gracecoe.org"}))
}

func TestAdminClassifier_IgnoresBlankEntries(t *testing.T) {
	classifier := NewAdminClassifier([]string{"", "  ", "dean@gracecoe.org "})

	assert.True(t, classifier.IsAdmin(Signals{Email: "dean@gracecoe.org"}))
	assert.False(t, classifier.IsAdmin(Signals{Email: ""}))
}
