package intel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBufferHasAllCategories(t *testing.T) {
	b := NewBuffer()

	require.Len(t, b, 5)
	for _, c := range Categories {
		assert.NotNil(t, b[c])
		assert.Empty(t, b[c])
	}
}

func TestAddDeduplicates(t *testing.T) {
	b := NewBuffer()

	b.Add(CategoryUPIIDs, "a@ybl", "b@ybl", "a@ybl", "")
	assert.Equal(t, []string{"a@ybl", "b@ybl"}, b[CategoryUPIIDs])

	b.Add(CategoryUPIIDs, "b@ybl", "c@ybl")
	assert.Equal(t, []string{"a@ybl", "b@ybl", "c@ybl"}, b[CategoryUPIIDs])
}

func TestMergeIsIdempotentAndCommutative(t *testing.T) {
	left := Extract("pay user@paytm, call 9876543210")
	right := Extract("account 123456789012 at user@paytm, otp now")

	// a ∪ b == (a ∪ b) ∪ b
	once := left.Clone()
	once.Merge(right)
	twice := once.Clone()
	twice.Merge(right)
	assert.Equal(t, once, twice)

	// a ∪ b == b ∪ a as sets
	reversed := right.Clone()
	reversed.Merge(left)
	for _, c := range Categories {
		assert.ElementsMatch(t, once[c], reversed[c], "category %s", c)
	}
}

func TestMissingCategories(t *testing.T) {
	b := NewBuffer()
	assert.Equal(t, Categories, b.Missing())

	b.Add(CategoryUPIIDs, "x@ybl")
	b.Add(CategorySuspiciousKeywords, "otp")

	assert.Equal(t,
		[]string{CategoryBankAccounts, CategoryPhishingLinks, CategoryPhoneNumbers},
		b.Missing())

	b.Add(CategoryBankAccounts, "123456789")
	b.Add(CategoryPhishingLinks, "http://evil.xyz")
	b.Add(CategoryPhoneNumbers, "9876543210")
	assert.Empty(t, b.Missing())
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewBuffer()
	b.Add(CategoryUPIIDs, "a@ybl")

	c := b.Clone()
	c.Add(CategoryUPIIDs, "b@ybl")

	assert.Equal(t, []string{"a@ybl"}, b[CategoryUPIIDs])
	assert.Equal(t, []string{"a@ybl", "b@ybl"}, c[CategoryUPIIDs])
}

func TestTotal(t *testing.T) {
	b := NewBuffer()
	assert.Zero(t, b.Total())

	b.Add(CategoryUPIIDs, "a@ybl", "b@ybl")
	b.Add(CategorySuspiciousKeywords, "otp")
	assert.Equal(t, 3, b.Total())
}

func TestNormalizeRepairsPartialBuffers(t *testing.T) {
	var b Buffer
	require.NoError(t, json.Unmarshal([]byte(`{"upiIds":["a@ybl"]}`), &b))

	b.Normalize()

	assert.Equal(t, []string{"a@ybl"}, b[CategoryUPIIDs])
	for _, c := range Categories {
		assert.NotNil(t, b[c])
	}
}

func TestBufferJSONRoundTrip(t *testing.T) {
	b := Extract("URGENT account 123456789012, pay user@paytm via https://bit.ly/x or call 9876543210")

	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded Buffer
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, b, decoded)
}
