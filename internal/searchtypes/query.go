package searchtypes

import (
	"github.com/standardbeagle/textsearch/internal/glob"
)

// PatternInfo describes the content pattern of a query
type PatternInfo struct {
	Pattern         string `json:"pattern"`
	IsRegExp        bool   `json:"isRegExp,omitempty"`
	IsWordMatch     bool   `json:"isWordMatch,omitempty"`
	WordSeparators  string `json:"wordSeparators,omitempty"`
	IsMultiline     bool   `json:"isMultiline,omitempty"`
	IsUnicode       bool   `json:"isUnicode,omitempty"`
	IsCaseSensitive bool   `json:"isCaseSensitive,omitempty"`
}

// PreviewOptions bounds the preview computed for each match
type PreviewOptions struct {
	MatchLines   int `json:"matchLines"`
	CharsPerLine int `json:"charsPerLine"`
}

// FolderQuery is one search root with its per-folder overrides
type FolderQuery struct {
	Folder         string          `json:"folder"`
	FolderName     string          `json:"folderName,omitempty"`
	IncludePattern glob.Expression `json:"includePattern,omitempty"`
	ExcludePattern glob.Expression `json:"excludePattern,omitempty"`
	FileEncoding   string          `json:"fileEncoding,omitempty"`

	DisregardIgnoreFiles       bool `json:"disregardIgnoreFiles,omitempty"`
	DisregardGlobalIgnoreFiles bool `json:"disregardGlobalIgnoreFiles,omitempty"`
	DisregardParentIgnoreFiles bool `json:"disregardParentIgnoreFiles,omitempty"`
	IgnoreSymlinks             bool `json:"ignoreSymlinks,omitempty"`
}

// Query is an immutable text search request spanning one or more folders.
// A nil MaxResults means unlimited; zero is a valid budget.
type Query struct {
	FolderQueries  []FolderQuery   `json:"folderQueries"`
	IncludePattern glob.Expression `json:"includePattern,omitempty"`
	ExcludePattern glob.Expression `json:"excludePattern,omitempty"`
	ContentPattern PatternInfo     `json:"contentPattern"`

	PreviewOptions *PreviewOptions `json:"previewOptions,omitempty"`
	MaxResults     *int            `json:"maxResults,omitempty"`
	MaxFileSize    int64           `json:"maxFileSize,omitempty"`
	UsePCRE2       bool            `json:"usePCRE2,omitempty"`
	BeforeContext  int             `json:"beforeContext,omitempty"`
	AfterContext   int             `json:"afterContext,omitempty"`
}

// IntPtr is a helper for building queries with a MaxResults budget
func IntPtr(n int) *int {
	return &n
}

// TextSearchQuery is the content-only query handed to a provider. Path
// filtering is carried separately in TextSearchOptions.
type TextSearchQuery struct {
	Pattern         string `json:"pattern"`
	IsMultiline     bool   `json:"isMultiline"`
	IsRegExp        bool   `json:"isRegExp"`
	IsCaseSensitive bool   `json:"isCaseSensitive"`
	IsWordMatch     bool   `json:"isWordMatch"`
}

// NewTextSearchQuery strips a PatternInfo down to what a provider needs
func NewTextSearchQuery(p PatternInfo) TextSearchQuery {
	return TextSearchQuery{
		Pattern:         p.Pattern,
		IsMultiline:     p.IsMultiline,
		IsRegExp:        p.IsRegExp,
		IsCaseSensitive: p.IsCaseSensitive,
		IsWordMatch:     p.IsWordMatch,
	}
}

// ExtensionUsePCRE2 is the Extensions key carrying the alternate regex engine flag
const ExtensionUsePCRE2 = "usePCRE2"

// TextSearchOptions are the folder-scoped options handed to a provider
type TextSearchOptions struct {
	Folder   string   `json:"folder"`
	Includes []string `json:"includes"`
	Excludes []string `json:"excludes"`

	UseIgnoreFiles       bool `json:"useIgnoreFiles"`
	UseGlobalIgnoreFiles bool `json:"useGlobalIgnoreFiles"`
	UseParentIgnoreFiles bool `json:"useParentIgnoreFiles"`
	FollowSymlinks       bool `json:"followSymlinks"`

	MaxResults     *int            `json:"maxResults,omitempty"`
	PreviewOptions *PreviewOptions `json:"previewOptions,omitempty"`
	MaxFileSize    int64           `json:"maxFileSize,omitempty"`
	Encoding       string          `json:"encoding,omitempty"`
	BeforeContext  int             `json:"beforeContext,omitempty"`
	AfterContext   int             `json:"afterContext,omitempty"`

	// Extensions carries provider specific flags untyped
	Extensions map[string]any `json:"extensions,omitempty"`
}

// UsePCRE2 reads the alternate regex engine flag from Extensions
func (o TextSearchOptions) UsePCRE2() bool {
	v, ok := o.Extensions[ExtensionUsePCRE2].(bool)
	return ok && v
}
