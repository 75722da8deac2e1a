package selfcheck

import (
	"fmt"
	"io"
	"io/fs"
	"strings"

	"golang.org/x/net/html"

	"github.com/moodmate/moodmate/server/internal/config"
	"github.com/moodmate/moodmate/server/internal/suggest"
	"github.com/moodmate/moodmate/server/internal/web"
)

// Result is the outcome of one check.
type Result struct {
	Name   string
	OK     bool
	Detail string
}

func pass(name, detail string) Result { return Result{Name: name, OK: true, Detail: detail} }

func fail(name string, err error) Result { return Result{Name: name, Detail: err.Error()} }

// Report is an ordered list of results.
type Report struct {
	Results []Result
}

// Add appends results.
func (r *Report) Add(res ...Result) { r.Results = append(r.Results, res...) }

// Failed returns the number of failed checks.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK {
			n++
		}
	}
	return n
}

// Write prints one line per result followed by a summary.
func (r *Report) Write(w io.Writer) error {
	for _, res := range r.Results {
		mark := "✅"
		if !res.OK {
			mark = "❌"
		}
		if _, err := fmt.Fprintf(w, "   %s %-22s %s\n", mark, res.Name, res.Detail); err != nil {
			return err
		}
	}
	var err error
	if n := r.Failed(); n > 0 {
		_, err = fmt.Fprintf(w, "\n⚠️  %d of %d checks failed.\n", n, len(r.Results))
	} else {
		_, err = fmt.Fprintf(w, "\n🎉 All %d checks passed.\n", len(r.Results))
	}
	return err
}

// Config loads the config at path and, when it names a step catalog, the
// catalog too. It returns the loaded config for later checks; nil on failure.
func Config(path string) (*config.Config, []Result) {
	name := "config"
	cfg, err := config.Load(path)
	if err != nil {
		return nil, []Result{fail(name, err)}
	}
	detail := "defaults (no file)"
	if path != "" {
		detail = path
	}
	out := []Result{pass(name, detail)}

	file := cfg.Server.Suggestions.File
	if file == "" {
		return cfg, append(out, pass("suggestions", "built-in tables"))
	}
	cat, err := suggest.LoadFile(file)
	if err != nil {
		return cfg, append(out, fail("suggestions", err))
	}
	return cfg, append(out, pass("suggestions", fmt.Sprintf("%s (%d/%d/%d steps)",
		file, len(cat.Positive.Steps), len(cat.Neutral.Steps), len(cat.Negative.Steps))))
}

// requiredIDs are the elements the page script needs.
var requiredIDs = []string{"moodInput", "analyzeBtn", "charCount", "resultCard", "errorCard", "enhancementSteps"}

// Assets renders the embedded page and checks its structure and the static
// files it links to.
func Assets(maxTextLength int) []Result {
	h, err := web.New(maxTextLength)
	if err != nil {
		return []Result{fail("page template", err)}
	}
	page, err := h.Render()
	if err != nil {
		return []Result{fail("page template", err)}
	}
	out := []Result{pass("page template", fmt.Sprintf("%s (%d bytes)", web.IndexFile, len(page)))}

	if missing, err := missingIDs(string(page), requiredIDs); err != nil {
		out = append(out, fail("page structure", err))
	} else if len(missing) > 0 {
		out = append(out, fail("page structure", fmt.Errorf("missing elements: %s", strings.Join(missing, ", "))))
	} else {
		out = append(out, pass("page structure", fmt.Sprintf("%d required elements", len(requiredIDs))))
	}

	for _, name := range []string{web.StyleFile, web.ScriptFile} {
		info, err := fs.Stat(web.Assets(), name)
		switch {
		case err != nil:
			out = append(out, fail(name, err))
		case info.Size() == 0:
			out = append(out, fail(name, fmt.Errorf("empty file")))
		default:
			out = append(out, pass(name, fmt.Sprintf("%d bytes", info.Size())))
		}
	}
	return out
}

// missingIDs parses doc and returns the ids from want that no element carries.
func missingIDs(doc string, want []string) ([]string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	found := make(map[string]bool)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" {
					found[a.Val] = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	var missing []string
	for _, id := range want {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
