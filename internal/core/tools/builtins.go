package tools

import (
	"time"

	"github.com/markdave123-py/Devmate/internal/core"
)

// Builtins are the collaborators the built-in tools need. Nil fields leave
// the corresponding tools unregistered.
type Builtins struct {
	Answerer DocumentAnswerer
	Library  DocumentLibrary
	Objects  core.ObjectClient
	HTTP     *HTTPConfig
	Now      func() time.Time
}

// RegisterBuiltins registers every built-in tool whose dependencies are set.
func RegisterBuiltins(r *Registry, b Builtins) {
	httpCfg := b.HTTP.withDefaults()

	r.MustRegister(currentTimeTool(b.Now))
	r.MustRegister(calculatorTool())
	r.MustRegister(currencyTool(httpCfg))
	r.MustRegister(stockPriceTool(httpCfg))
	r.MustRegister(webSearchTool(httpCfg))
	if httpCfg.WeatherAPIKey != "" {
		r.MustRegister(weatherTool(httpCfg))
	}

	if b.Answerer != nil {
		r.MustRegister(queryDocumentsTool(b.Answerer))
	}
	if b.Library != nil {
		r.MustRegister(listUserFilesTool(b.Library))
		r.MustRegister(deleteUserFileTool(b.Library))
		r.MustRegister(deleteAllUserFilesTool(b.Library))
	}
	if b.Objects != nil {
		r.MustRegister(writeFileTool(b.Objects))
		r.MustRegister(readFileTool(b.Objects))
	}
}
