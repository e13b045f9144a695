package descriptor

import (
	"errors"
	"testing"
)

func TestParseVersionFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr error
	}{
		{
			name:    "single quotes",
			content: "__version__ = '0.1.0'\n",
			want:    "0.1.0",
		},
		{
			name:    "double quotes",
			content: `__version__ = "1.2.3rc1"`,
			want:    "1.2.3rc1",
		},
		{
			name:    "no spaces",
			content: "__version__='2.0'",
			want:    "2.0",
		},
		{
			name:    "with comments and other lines",
			content: "# Version of the anthroab package\n\n__author__ = 'x'\n__version__ = '0.2.0'  # PEP 396\n",
			want:    "0.2.0",
		},
		{
			name:    "byte order mark",
			content: "\xef\xbb\xbf__version__ = '3.1'\n",
			want:    "3.1",
		},
		{
			name:    "last assignment wins",
			content: "__version__ = '0.1.0'\n__version__ = '0.2.0'\n",
			want:    "0.2.0",
		},
		{
			name:    "annotated",
			content: "__version__: str = \"1.4.0\"\n",
			want:    "1.4.0",
		},
		{
			name:    "followed by statement",
			content: "__version__ = \"1.5.0\"; __author__ = 'x'\n",
			want:    "1.5.0",
		},
		{
			name:    "later empty assignment",
			content: "__version__ = '1.0'\n__version__ = ''\n",
			wantErr: ErrMalformedVersionFile,
		},
		{
			name:    "empty string",
			content: "__version__ = ''\n",
			wantErr: ErrMalformedVersionFile,
		},
		{
			name:    "no assignment",
			content: "VERSION = '1.0'\n",
			wantErr: ErrMalformedVersionFile,
		},
		{
			name:    "commented out",
			content: "# __version__ = '1.0'\n",
			wantErr: ErrMalformedVersionFile,
		},
		{
			name:    "computed value",
			content: "__version__ = '.'.join(map(str, VERSION))\n",
			wantErr: ErrMalformedVersionFile,
		},
		{
			name:    "empty file",
			content: "",
			wantErr: ErrMalformedVersionFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVersionFile("__version__.py", []byte(tt.content))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("parseVersionFile() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseVersionFile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("parseVersionFile() = %q, want %q", got, tt.want)
			}
		})
	}
}
