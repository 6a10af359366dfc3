package analyze

import (
	"fmt"
	"strings"

	"github.com/aschepis/mythra/llm"
)

// systemPrompt is the fixed system instruction sent with every request.
const systemPrompt = "You are an expert Solidity gas optimization assistant."

// exampleFinding shows the model the exact object shape we parse.
const exampleFinding = `{
  "description": "Cache storage variable ` + "`owner`" + ` in memory within the loop",
  "suggested_change": "// Original:\n// for (uint i = 0; i < addresses.length; i++) {\n//   require(msg.sender == owner, \"Not owner\");\n// }\n\n// Optimized:\naddress cachedOwner = owner;\nfor (uint i = 0; i < addresses.length; i++) {\n  require(msg.sender == cachedOwner, \"Not owner\");\n}",
  "estimated_gas_saved": "Saves significant gas (reduces SLOAD operations inside loop)",
  "safety_rationale": "Caching the storage variable in memory is safe because it is not modified within the loop. This avoids repeated SLOAD opcodes without changing the access control logic.",
  "start_line": 45,
  "end_line": 50
}`

// RequestBuilder renders the fixed instructional template into
// provider-agnostic requests. It is a pure transformation: the same unit,
// chunk, and builder configuration always produce the same request.
type RequestBuilder struct {
	Model       string
	MaxTokens   int64
	Temperature *float64
}

// Build renders the request for one chunk of a source unit. For sources
// below the chunking threshold the chunk covers the whole text.
func (b *RequestBuilder) Build(unit SourceUnit, chunk Chunk) *llm.Request {
	var prompt strings.Builder

	context := ""
	if unit.Name != "" {
		context = fmt.Sprintf(" for the file '%s'", unit.Name)
	}
	if chunk.Total > 1 {
		context += fmt.Sprintf(" (part %d of %d)", chunk.Index+1, chunk.Total)
	}

	fmt.Fprintf(&prompt, "Analyze the following Solidity smart contract code%s for potential gas optimizations.\n\n", context)

	prompt.WriteString(`**Your Task:**
1. Identify specific areas in the code where gas usage can be reduced without changing the core logic or introducing security vulnerabilities. Focus on safe, commonly accepted optimizations, but also consider advanced techniques (Yul/assembly, bit shifting, unchecked math) where appropriate and demonstrably safe.
2. For each optimization found, provide the details in a JSON list. Each item must be a JSON object with these exact keys:
   * "description": (string) A clear explanation of the gas optimization technique.
   * "suggested_change": (string) The specific code modification required. Show the relevant original lines commented out and the new lines below them.
   * "estimated_gas_saved": (string | null) An estimate of the gas savings. Use null if estimation is not feasible.
   * "safety_rationale": (string) Explain in detail why this change is safe: confirm it does not alter the contract's intended external behavior or introduce reentrancy, overflow/underflow, access control, or memory corruption issues.
   * "start_line": (integer | null) The approximate starting line number in the code provided below where the change applies.
   * "end_line": (integer | null) The approximate ending line number.

**IMPORTANT SAFETY CONSTRAINTS:**
1. NEVER suggest unchecked arithmetic solely because an operation is "protected by access control". Each unchecked block must be mathematically proven safe based on the operation itself.
2. For assembly code, explain exactly how memory safety, type safety, and control flow safety are maintained.
3. For any optimization that removes checks, provide a mathematical or logical proof of why those checks are redundant.

**Example JSON Object:**
`)
	prompt.WriteString(exampleFinding)
	prompt.WriteString(`

**Important Constraints:**
* SAFETY IS PARAMOUNT: only suggest optimizations that are demonstrably safe. If unsure about safety, do not suggest the optimization.
* Output Format: respond ONLY with a single JSON list containing the optimization objects. Do not include introductory text, explanations outside the JSON structure, or concluding remarks. If no safe optimizations are found, respond with an empty JSON list [].

**Solidity Code to Analyze:**
`)
	prompt.WriteString("```solidity\n")
	prompt.WriteString(chunk.Text)
	if !strings.HasSuffix(chunk.Text, "\n") {
		prompt.WriteString("\n")
	}
	prompt.WriteString("```\n\nRespond ONLY with the JSON list of optimizations:\n")

	return &llm.Request{
		Model:       b.Model,
		System:      systemPrompt,
		Prompt:      prompt.String(),
		MaxTokens:   b.MaxTokens,
		Temperature: b.Temperature,
	}
}
