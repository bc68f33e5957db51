package agent

import (
	"context"

	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// newFacilitator creates the expert in charge of the conversation.
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user just ran a backtest of a trading strategy against historical market data.
			He is here primarily to understand how the strategy performed and why.

			Devise a plan of questions to ask each expert and come up with the best response to the user's request.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewAnalyst creates the expert able to read the user's backtest results.
//
// reportMarkdown is the rendered run or sweep report the session discusses.
func NewAnalyst(reportMarkdown string) *Expert {
	lib := []Function{reportFunc(reportMarkdown)}

	return &Expert{
		Name: "Analyst",
		Description: `This is the quantitative Analyst. He has access to the user's latest backtest
		report: the simulated portfolio's initial and final value, return on investment,
		compound annual growth rate, final positions and the full order log.
		Ask the Analyst everything about what actually happened during the simulation.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are a quantitative analyst in charge of the user's backtest results.
				You know how to use the Tools to read the latest backtest report: summary
				figures, final positions and the order log. Ground every assertion about
				the simulation in the report; never invent fills or figures.

				Keep in mind the conventions of this simulator: limit and stop orders
				fill at exactly their trigger price, and orders opened on a bar can only
				fill on a later bar.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// NewResearcher creates the expert able to search for market context.
func NewResearcher() *Expert {
	return &Expert{
		Name: "Researcher",
		Description: `This is an expert market researcher,
		very well aware of financial products, markets and companies,
		and of the latest news about them.
		Ask the Researcher whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert in financial markets research. You can search and find
			anything related to financial institutions, companies, markets or funds.
			You leverage Google Search to ground your assertions in a solid truth,
			and you know how to relate the news to the user's backtest.
				`}}},
		},
	}
}

// reportFunc exposes the rendered report to the Analyst as a tool.
func reportFunc(reportMarkdown string) Function {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "Report",
			Description: `Report returns the user's latest backtest report as markdown:
			summary figures (initial and final value, ROI, CAGR), final positions,
			and the full order log with open and close dates, trigger prices and statuses.`,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown-formatted backtest report.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			return &genai.FunctionResponse{
				ID:   id,
				Name: "Report",
				Response: map[string]any{
					"output": reportMarkdown,
				},
			}
		},
	}
}
