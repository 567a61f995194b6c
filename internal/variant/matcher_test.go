package variant

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompatibleWithSelection(t *testing.T) {
	cases := []struct {
		name      string
		selection map[string]string
		params    map[string]string
		want      bool
	}{
		{
			name:      "one remaining dimension",
			selection: map[string]string{"a": "1"},
			params:    map[string]string{"a": "1", "b": "2"},
			want:      true,
		},
		{
			name:      "exact match",
			selection: map[string]string{"a": "1", "b": "2"},
			params:    map[string]string{"a": "1", "b": "2"},
			want:      true,
		},
		{
			name:      "more than one unmatched dimension",
			selection: map[string]string{"a": "1", "b": "2", "c": "3"},
			params:    map[string]string{"a": "1"},
			want:      false,
		},
		{
			name:      "single differing value",
			selection: map[string]string{"color": "red", "size": "M"},
			params:    map[string]string{"color": "red", "size": "L"},
			want:      true,
		},
		{
			name:      "two differing values",
			selection: map[string]string{"color": "red", "size": "M"},
			params:    map[string]string{"color": "blue", "size": "L"},
			want:      false,
		},
		{
			name:      "empty selection against single dimension",
			selection: map[string]string{},
			params:    map[string]string{"color": "red"},
			want:      true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CompatibleWithSelection(tc.selection, tc.params))
		})
	}
}

func TestSerializeParametersIsCanonical(t *testing.T) {
	hash := SerializeParameters(map[string]string{"size": "M", "color": "red"})
	require.Equal(t, "color=red;size=M", hash)
	require.Equal(t, hash, SerializeParameters(map[string]string{"color": "red", "size": "M"}))
}

func TestUnserializeParametersRoundTrip(t *testing.T) {
	params := UnserializeParameters("color=red;size=M")
	require.Equal(t, map[string]string{"color": "red", "size": "M"}, params)

	require.Empty(t, UnserializeParameters(""))
	require.Equal(t, map[string]string{"a": "1"}, UnserializeParameters("a=1;;broken"))
}
