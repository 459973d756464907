// Package prompt loads persona system instructions and resolves a requested
// persona to one, falling back to a default instead of failing. Templates are
// loaded once at process start and are read-only afterwards.
package prompt

import (
	contractx "github.com/kittipos/callroom/rag/contract"
)

// Resolution is the outcome of a persona lookup. Defaulted is true when the
// requested persona was unknown and the provider substituted its default; the
// requested persona is advisory, so this is surfaced rather than raised.
type Resolution struct {
	Persona           contractx.Persona
	SystemInstruction string
	Defaulted         bool
}

// Provider maps persona identifiers to their system instructions.
type Provider struct {
	prompts        PromptSet
	defaultPersona contractx.Persona
}

// NewProvider builds a Provider over the embedded templates. An empty or
// unknown defaultPersona falls back to the analyst persona.
func NewProvider(defaultPersona contractx.Persona) *Provider {
	switch defaultPersona {
	case contractx.PersonaAnalyst, contractx.PersonaExecutive:
	default:
		defaultPersona = contractx.PersonaAnalyst
	}
	return &Provider{
		prompts:        LoadPromptSet(),
		defaultPersona: defaultPersona,
	}
}

// Resolve returns the system instruction for the requested persona. Unknown
// personas resolve to the default persona with Defaulted set; Resolve never
// fails, because a persona mismatch must not block an answer.
func (p *Provider) Resolve(persona contractx.Persona) Resolution {
	switch persona {
	case contractx.PersonaAnalyst:
		return Resolution{Persona: persona, SystemInstruction: p.prompts.Analyst}
	case contractx.PersonaExecutive:
		return Resolution{Persona: persona, SystemInstruction: p.prompts.Executive}
	default:
		fallback := p.instructionFor(p.defaultPersona)
		return Resolution{
			Persona:           p.defaultPersona,
			SystemInstruction: fallback,
			Defaulted:         true,
		}
	}
}

// Default reports the provider's fallback persona.
func (p *Provider) Default() contractx.Persona {
	return p.defaultPersona
}

func (p *Provider) instructionFor(persona contractx.Persona) string {
	if persona == contractx.PersonaExecutive {
		return p.prompts.Executive
	}
	return p.prompts.Analyst
}
