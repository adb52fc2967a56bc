package agent

import (
	"fmt"
	"strings"

	"github.com/cpunion/dexbot/pkg/research"
)

const capabilities = `You can rely on three capabilities:
1. Searching for creatures by rules: types, battle roles, speed/attack/defense tiers,
   required resistances or immunities, strategic move tags, color, shape, habitat and
   legendary/mythical/baby flags. Produces a list of names.
2. Getting details on named creatures: summary, battle_profile, moves, ecology, lore and evolution.
3. Analyzing a team as a whole: coverage, shared weaknesses, top threats and resistances.`

const refinementRules = `When you write the refined prompt:
- Combine the original request with every detail the user gave in later answers.
- If something important is still missing, assume it and say so inside the prompt,
  e.g. "(assuming the user is playing Scarlet and Violet)" or "(given the goal is a
  standard playthrough)".
- Do not give ideas or suggestions. Write only a clear, actionable research prompt.`

const clarifyInstruction = `You clarify creature research requests before any research starts.
Read the whole conversation and decide whether key information is missing
(the game version, the user's goal, their current team).
If it is, reply with kind "follow_up" and the questions to ask.
Only when everything needed is present, reply with kind "refined" and the refined prompt.

` + refinementRules

const refineInstruction = `The clarification conversation is over. Synthesize it into one final
research prompt. You must not ask more questions: reply with kind "refined".

` + refinementRules

const outlineInstruction = `You are a research planner. Decompose the user's request into a numbered
sequence of natural-language steps for another agent to follow. Do not execute the plan.
Never mention tool or function names; describe the action instead, e.g. "Analyze the team
to find its weaknesses". Chain steps explicitly: say how a step uses the results of an
earlier one.

` + capabilities

const executeInstruction = `You answer one research query using exactly one of your tools.
Pick the tool that best fits the query, call it with precise arguments, then summarize
its output. The summary feeds a later reporting step, so be exhaustive and factual:
report only what the tool returned, organize it with markdown headings and bullets,
and state explicitly anything requested that was missing or returned an error.

Reply with JSON only: {"is_success": <bool>, "summary": "<markdown summary>"}.
Set is_success to false when the tool failed or returned nothing useful.`

const reportInstruction = `You write the final research report for the user.
Use only the facts in the execution results. Answer the user's request directly,
follow the outline where it helps, and cite the results you rely on with their
bracketed number, e.g. [2]. Write markdown.`

func clarifyPrompt(in research.ClarifyInput) string {
	var b strings.Builder
	if in.ForceRefine {
		b.WriteString(refineInstruction)
	} else {
		b.WriteString(clarifyInstruction)
	}
	b.WriteString("\n\n<conversation>\n")
	for _, ex := range in.History {
		fmt.Fprintf(&b, "user: %s\n", ex.Message)
		for _, q := range ex.Questions {
			fmt.Fprintf(&b, "assistant: %s\n", q)
		}
	}
	fmt.Fprintf(&b, "user: %s\n</conversation>\n", in.Message)
	return b.String()
}

func outlinePrompt(prompt string) string {
	return fmt.Sprintf("%s\n\n<user_prompt>\n%s\n</user_prompt>\n", outlineInstruction, prompt)
}

func planPrompt(in research.Input) string {
	return fmt.Sprintf(`You direct a multi-turn research process. Decide whether to PLAN more queries
or to declare the research complete.

<user_prompt>
%s
</user_prompt>

<research_outline>
%s
</research_outline>

<execution_results>
%s
</execution_results>

%s

If important information is still missing, set is_complete to false and list new queries.
Queries run in parallel, so they must not depend on each other, and must not repeat
information already in the execution results.
If the results are sufficient to answer the prompt and outline, set is_complete to true
and leave queries empty. Always explain your reasoning in thoughts.
`, in.Prompt, in.Outline, in.History(), capabilities)
}

func reportPrompt(in research.Input) string {
	var b strings.Builder
	b.WriteString(reportInstruction)
	fmt.Fprintf(&b, "\n\n<user_prompt>\n%s\n</user_prompt>\n", in.Prompt)
	fmt.Fprintf(&b, "\n<research_outline>\n%s\n</research_outline>\n", in.Outline)
	b.WriteString("\n<execution_results>\n")
	for i, r := range in.Results {
		if !r.IsSuccess {
			continue
		}
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, r.Query, r.Summary)
	}
	b.WriteString("</execution_results>\n")
	return b.String()
}
