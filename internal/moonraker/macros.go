package moonraker

import (
	"context"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// macroPrefix marks G-code macro entries in the printer objects list.
const macroPrefix = "gcode_macro "

// Macro is one operator-invocable G-code macro.
type Macro struct {
	Name string `json:"name"`
}

// objectsListResponse is the wire shape of /printer/objects/list.
type objectsListResponse struct {
	Result struct {
		Objects []string `json:"objects"`
	} `json:"result"`
}

// ListMacros returns the printer's G-code macros, deduplicated and sorted
// with locale-aware collation. Hidden macros (underscore-prefixed, the
// Klipper convention for internal helpers) are excluded.
//
// Parameters:
//   - ctx: context for cancellation
//   - baseURL: caller-supplied origin, or blank for the default
//
// Returns:
//   - []Macro: sorted macro list, possibly empty
//   - error: validation, transport, or upstream error
func (c *Client) ListMacros(ctx context.Context, baseURL string) ([]Macro, error) {
	base, err := c.ResolveBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	var resp objectsListResponse
	if err := c.getJSON(ctx, base, "/printer/objects/list", nil, &resp); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, obj := range resp.Result.Objects {
		if !strings.HasPrefix(obj, macroPrefix) {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(obj, macroPrefix))
		if name == "" || strings.HasPrefix(name, "_") {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	collate.New(language.Spanish, collate.IgnoreCase).SortStrings(names)

	macros := make([]Macro, len(names))
	for i, name := range names {
		macros[i] = Macro{Name: name}
	}
	return macros, nil
}
