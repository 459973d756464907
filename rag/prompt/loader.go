package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/analyst.txt
	analystRaw string

	//go:embed template/executive.txt
	executiveRaw string
)

// PromptSet holds the loaded persona system instructions.
type PromptSet struct {
	Analyst   string
	Executive string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// The embed is compile-time, so this is safe to call concurrently.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Analyst:   strings.TrimSpace(analystRaw),
		Executive: strings.TrimSpace(executiveRaw),
	}
}
