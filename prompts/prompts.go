// Package prompts builds the prompt sent to a generation backend. Assembly is
// pure string concatenation; the user text is passed through verbatim.
package prompts

import "strings"

// Style selects the flavor of code the backend is asked to produce.
type Style string

const (
	StyleDefault Style = "Default"
	StyleModular Style = "Modular"
)

// Valid reports whether s is a known style. The zero value is valid and means
// StyleDefault.
func (s Style) Valid() bool {
	return s == "" || s == StyleDefault || s == StyleModular
}

const basePrompt = `You are an expert in OpenSCAD, a script-only 3D modeling software.
Your task is to generate clean, correct, and executable OpenSCAD code based on the user's request.

**CRITICAL INSTRUCTIONS:**
1.  **ONLY output the raw OpenSCAD code.**
2.  **DO NOT** include any explanations, comments, or markdown formatting (like ` + "```openscad" + `).
3.  The code should be complete and ready to execute.
4.  Do not write any text before or after the code.
5.  Your entire response should be only the OpenSCAD code.
`

const modularPrompt = `The code should be modular and parametric, making it easy for the user to modify and customize.
`

const (
	attachmentIntro = `The user has attached a file as additional context. Treat its contents as reference material for the request.
--- BEGIN ATTACHED FILE CONTENT ---`
	attachmentOutro = `--- END ATTACHED FILE CONTENT ---`
)

// Assemble composes the full prompt: base preamble, optional modular addendum,
// optional attachment block, then the quoted user request. The order is part
// of the contract; callers and tests rely on it.
func Assemble(style Style, attachment, userText string) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	if style == StyleModular {
		b.WriteString(modularPrompt)
	}
	if attachment != "" {
		b.WriteString("\n")
		b.WriteString(attachmentIntro)
		b.WriteString("\n")
		b.WriteString(attachment)
		b.WriteString("\n")
		b.WriteString(attachmentOutro)
		b.WriteString("\n")
	}
	b.WriteString("\n**User Request:** \"")
	b.WriteString(userText)
	b.WriteString("\"\n")
	return b.String()
}
