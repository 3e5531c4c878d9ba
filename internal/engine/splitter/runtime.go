package splitter

import (
	"strconv"
	"strings"

	"go.trai.ch/knit/internal/core/domain"
)

const runtimeBody = `function loadChunk(name) {
  var path = __knitChunks[name];
  if (!path) throw new Error("unknown chunk: " + name);
  if (typeof document !== "undefined") {
    var el;
    if (/\.css$/.test(path)) {
      el = document.createElement("link");
      el.rel = "stylesheet";
      el.href = path;
    } else {
      el = document.createElement("script");
      el.src = path;
    }
    document.head.appendChild(el);
    return;
  }
  if (typeof require === "function") require("./" + path);
}
`

// Runtime returns the JavaScript prelude defining loadChunk, or "" when there
// are no chunks. Stylesheet chunks are attached as link elements.
func Runtime(chunks []domain.Chunk) string {
	var entries []string
	for i := range chunks {
		entries = append(entries, "  "+strconv.Quote(chunks[i].Name)+": "+strconv.Quote(chunks[i].Path))
	}
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("var __knitChunks = {\n")
	b.WriteString(strings.Join(entries, ",\n"))
	b.WriteString("\n};\n")
	b.WriteString(runtimeBody)
	return b.String()
}
