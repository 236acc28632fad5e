package roomcode_test

import (
	"strings"
	"testing"

	"github.com/BioHazard786/eggcombat/internal/roomcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	seen := make(map[rune]bool)
	for range 2000 {
		code := roomcode.Generate()
		require.Len(t, code.String(), roomcode.Length)
		for _, r := range code.String() {
			require.True(t, strings.ContainsRune(roomcode.Alphabet, r), "unexpected symbol %q", r)
			require.NotContains(t, "O0I1", string(r))
			seen[r] = true
		}
	}
	// 8000 draws over 32 symbols: every symbol should have shown up.
	assert.Len(t, seen, len(roomcode.Alphabet))
}

func TestAlphabet(t *testing.T) {
	assert.Len(t, roomcode.Alphabet, 32)
	for _, r := range "O0I1" {
		assert.NotContains(t, roomcode.Alphabet, string(r))
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    roomcode.Code
		wantErr error
	}{
		{name: "valid", input: "B7XQ", want: "B7XQ"},
		{name: "lower case and spaces", input: "  b7xq ", want: "B7XQ"},
		{name: "empty", input: "  ", wantErr: roomcode.ErrEmpty},
		{name: "too short", input: "B7X", wantErr: roomcode.ErrInvalidLength},
		{name: "too long", input: "B7XQZ", wantErr: roomcode.ErrInvalidLength},
		{name: "ambiguous zero", input: "B0XQ", wantErr: roomcode.ErrInvalidSymbol},
		{name: "ambiguous letter O", input: "BOXQ", wantErr: roomcode.ErrInvalidSymbol},
		{name: "punctuation", input: "B-XQ", wantErr: roomcode.ErrInvalidSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := roomcode.Parse(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    roomcode.Code
		wantErr bool
	}{
		{name: "bare code", input: "k3mz", want: "K3MZ"},
		{name: "room link", input: "https://eggcombat.example/r/K3MZ", want: "K3MZ"},
		{name: "room link trailing slash", input: "https://eggcombat.example/r/k3mz/", want: "K3MZ"},
		{name: "link without code", input: "https://eggcombat.example/lobby", wantErr: true},
		{name: "link with bad code", input: "https://eggcombat.example/r/OOPS", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := roomcode.ParseInput(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "eggcombat-B7XQ", roomcode.ToAddress("B7XQ"))

	ns := roomcode.Namespace{Prefix: "test-"}
	addr := ns.ToAddress("B7XQ")
	assert.Equal(t, "test-B7XQ", addr)

	code, ok := ns.FromAddress(addr)
	require.True(t, ok)
	assert.Equal(t, roomcode.Code("B7XQ"), code)

	_, ok = ns.FromAddress("eggcombat-B7XQ")
	assert.False(t, ok)
}
