package convert

import (
	"fmt"
	"path/filepath"
	"strings"
)

// pageSlot is the printf verb the engine replaces with the page number.
const pageSlot = "%02d"

// fallbackStem names split pages whose file name slugifies to nothing.
const fallbackStem = "document"

// OutputTemplate returns where a split writes its pages. fileName overrides
// the document's own name (sourceBase) when set. A single-page document keeps
// its name unchanged, since it is copied rather than split. Otherwise the
// result is "<targetDir>/<slug>_page%02d<ext>", a printf format with exactly
// one page slot; any other '%' is escaped.
func OutputTemplate(targetDir, fileName, sourceBase string, pageCount int) string {
	name := sourceBase
	if fileName != "" {
		name = filepath.Base(fileName)
	}
	if pageCount == 1 {
		return filepath.Join(targetDir, name)
	}

	ext := filepath.Ext(name)
	stem := slugify(strings.TrimSuffix(name, ext))
	if stem == "" {
		stem = fallbackStem
	}
	return filepath.Join(escapePercent(targetDir), stem+"_page"+pageSlot+escapePercent(ext))
}

func escapePercent(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}

// PagePath substitutes page into a template from OutputTemplate.
func PagePath(template string, page int) string {
	return fmt.Sprintf(template, page)
}
