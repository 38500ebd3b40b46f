package planner

import (
	"passive-genius/internal/idea"
	"passive-genius/internal/llm"
)

func stringArray() *llm.Schema {
	return &llm.Schema{Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}}
}

func difficultyEnum() []string {
	out := make([]string, len(idea.Difficulties))
	for i, d := range idea.Difficulties {
		out[i] = string(d)
	}
	return out
}

// Ideas carry no id in the schema; identity is assigned locally.
var ideasSchema = &llm.Schema{
	Type: llm.TypeArray,
	Items: &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"title":                   {Type: llm.TypeString},
			"description":             {Type: llm.TypeString},
			"difficulty":              {Type: llm.TypeString, Enum: difficultyEnum()},
			"estimatedMonthlyRevenue": {Type: llm.TypeString},
			"setupCost":               {Type: llm.TypeString},
			"timeToRevenue":           {Type: llm.TypeString},
			"tags":                    stringArray(),
		},
		Required: []string{"title", "description", "difficulty", "estimatedMonthlyRevenue", "setupCost", "timeToRevenue", "tags"},
	},
}

var questionsSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"questions": stringArray(),
	},
	Required: []string{"questions"},
}

var planSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"ideaId":            {Type: llm.TypeString},
		"overview":          {Type: llm.TypeString},
		"marketingStrategy": {Type: llm.TypeString},
		"steps": {
			Type: llm.TypeArray,
			Items: &llm.Schema{
				Type: llm.TypeObject,
				Properties: map[string]*llm.Schema{
					"phase": {Type: llm.TypeString},
					"tasks": stringArray(),
				},
				Required: []string{"phase", "tasks"},
			},
		},
		"projections": {
			Type: llm.TypeArray,
			Items: &llm.Schema{
				Type: llm.TypeObject,
				Properties: map[string]*llm.Schema{
					"month":    {Type: llm.TypeString},
					"revenue":  {Type: llm.TypeNumber},
					"expenses": {Type: llm.TypeNumber},
					"profit":   {Type: llm.TypeNumber},
				},
				Required: []string{"month", "revenue", "expenses", "profit"},
			},
		},
	},
	Required: []string{"overview", "marketingStrategy", "steps", "projections"},
}
