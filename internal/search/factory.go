package search

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// FromNames builds engines from their configured names. A "-browser"
// suffix wraps the engine with headless rendering, e.g. "bing-browser".
func FromNames(names []string, client *http.Client, browserTimeout time.Duration) ([]Engine, error) {
	engines := make([]Engine, 0, len(names))
	for _, name := range names {
		rendered := strings.HasSuffix(name, "-browser")
		base := strings.TrimSuffix(name, "-browser")

		var engine pageEngine
		switch base {
		case "duckduckgo":
			engine = NewDuckDuckGo(client)
		case "bing":
			engine = NewBing(client)
		case "startpage":
			engine = NewStartpage(client)
		default:
			return nil, fmt.Errorf("unknown search engine %q", name)
		}

		if rendered {
			engines = append(engines, NewRenderedEngine(engine, browserTimeout))
		} else {
			engines = append(engines, engine)
		}
	}
	return engines, nil
}
