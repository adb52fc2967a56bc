package research

import (
	"encoding/xml"

	"github.com/cpunion/dexbot/pkg/types"
)

type historyDoc struct {
	XMLName xml.Name        `xml:"results"`
	Results []historyResult `xml:"execution_result"`
}

type historyResult struct {
	Query   string `xml:"query"`
	Summary string `xml:"summary"`
}

// FormatHistory renders results as the XML block handed to planning and
// reporting prompts. An empty history renders as "<results></results>".
func FormatHistory(results []types.ExecutionResult) string {
	doc := historyDoc{Results: make([]historyResult, len(results))}
	for i, r := range results {
		doc.Results[i] = historyResult{Query: r.Query, Summary: r.Summary}
	}
	data, err := xml.Marshal(doc)
	if err != nil {
		// only strings are marshaled
		panic(err)
	}
	return string(data)
}
