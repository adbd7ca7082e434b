package concat_test

import (
	"errors"
	"testing"

	"github.com/CMClay/metalsmith-concat/pkg/concat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOptions(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want concat.Options
	}{
		{
			name: "glob string",
			raw:  map[string]any{"files": "*.css", "output": "all.css"},
			want: concat.Options{Files: concat.Glob("*.css"), Output: "all.css"},
		},
		{
			name: "empty glob string",
			raw:  map[string]any{"files": "", "output": "o"},
			want: concat.Options{Files: concat.Glob(""), Output: "o"},
		},
		{
			name: "explicit list",
			raw:  map[string]any{"files": []any{"a.js", "b.js"}, "output": "o", "keepConcatenated": true},
			want: concat.Options{Files: concat.Explicit{"a.js", "b.js"}, Output: "o", KeepConcatenated: true},
		},
		{
			name: "typed string list",
			raw:  map[string]any{"files": []string{"a.js"}, "output": "o"},
			want: concat.Options{Files: concat.Explicit{"a.js"}, Output: "o"},
		},
		{
			name: "list elements are formatted",
			raw:  map[string]any{"files": []any{1, "b"}, "output": "o"},
			want: concat.Options{Files: concat.Explicit{"1", "b"}, Output: "o"},
		},
		{
			name: "unsupported files type falls back to default",
			raw:  map[string]any{"files": 12, "output": "o"},
			want: concat.Options{Output: "o"},
		},
		{
			name: "non-boolean keep is false",
			raw:  map[string]any{"output": "o", "keepConcatenated": "yes"},
			want: concat.Options{Output: "o"},
		},
		{
			name: "keys are matched case-insensitively",
			raw:  map[string]any{"OUTPUT": "o", "keepconcatenated": true},
			want: concat.Options{Output: "o", KeepConcatenated: true},
		},
		{
			name: "snake case keep",
			raw:  map[string]any{"output": "o", "keep_concatenated": true},
			want: concat.Options{Output: "o", KeepConcatenated: true},
		},
		{
			name: "non-string output is formatted",
			raw:  map[string]any{"output": 7},
			want: concat.Options{Output: "7"},
		},
		{
			name: "metadata passed through",
			raw:  map[string]any{"output": "o", "metadata": "not-an-object", "unknown": 1},
			want: concat.Options{Output: "o", Metadata: "not-an-object"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := concat.DecodeOptions(tt.raw, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeOptions_MissingOutput(t *testing.T) {
	for _, raw := range []map[string]any{nil, {}, {"output": nil, "files": "*"}} {
		_, err := concat.DecodeOptions(raw, nil)
		assert.True(t, errors.Is(err, concat.ErrMissingOutput), "raw %#v: %v", raw, err)
	}
}

func TestFromMap(t *testing.T) {
	p, err := concat.FromMap(map[string]any{
		"files":    "*(first|third)/*",
		"output":   "out",
		"metadata": map[string]any{"title": "x"},
	}, nil)
	require.NoError(t, err)

	files := fixture()
	require.NoError(t, p.Process(files))

	out, ok := files.Get("out")
	require.True(t, ok)
	assert.Equal(t, "loremipsum", string(out.Contents))
	title, _ := out.Get("title")
	assert.Equal(t, "x", title)
}

func TestFromMap_InvalidMetadataFailsOnProcess(t *testing.T) {
	p, err := concat.FromMap(map[string]any{"output": "out", "metadata": "not-an-object"}, nil)
	require.NoError(t, err)

	err = p.Process(fixture())
	assert.True(t, errors.Is(err, concat.ErrInvalidMetadata))
}

func TestSelectionString(t *testing.T) {
	assert.Equal(t, "**/*", concat.Glob("**/*").String())
	assert.Equal(t, "[a, b]", concat.Explicit{"a", "b"}.String())
}
