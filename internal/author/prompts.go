package author

import (
	"fmt"
	"strings"

	"github.com/claude/kinetic/internal/models"
)

const unitList = "'reps', 'seconds', 'meters', 'feet', 'yards', 'miles'"

const programShape = `{"programName": string, "description": string, "workouts": [{"name": string, "exercises": [{"name": string, "sets": integer, "metricValue": string, "metricUnit": string, "description": string}]}]}`

const ideasPrompt = `Generate 5 diverse, pre-made workout program ideas. For each, provide a name, a short description, the primary goal, and the intended experience level.
Respond with only a JSON array of objects shaped {"programName": string, "description": string, "goal": string, "level": string}. Do not include any explanatory text or markdown formatting.`

func ideaPrompt(idea models.ProgramIdea, profile models.Profile) string {
	var b strings.Builder
	b.WriteString("Generate a detailed weekly workout program.\n")
	fmt.Fprintf(&b, "Program Name: %q\n", idea.ProgramName)
	fmt.Fprintf(&b, "Description: %q\n", idea.Description)
	fmt.Fprintf(&b, "Primary Goal: %s\n", idea.Goal)
	fmt.Fprintf(&b, "Experience Level: %s\n", idea.Level)
	if profile.Name != "" {
		fmt.Fprintf(&b, "Tailor this for a user with the goal: %s.\n", profile.Goal)
	}
	b.WriteString("\nThe program should include 3-5 distinct workout days. For each workout, provide a name and a list of 5-8 exercises.\n")
	fmt.Fprintf(&b, "For each exercise, specify its name, the number of sets, a metricValue (e.g., '8-12' for reps, or '500' for distance), and a metricUnit from the list: %s. For traditional lifting, use 'reps'. For cardio like running or rowing, use a distance unit.\n", unitList)
	fmt.Fprintf(&b, "Format the result as a single JSON object shaped %s. Do not include any explanatory text or markdown formatting.", programShape)
	return b.String()
}

func freeTextPrompt(request string, profile models.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Act as an expert fitness coach. Generate a comprehensive and structured workout program based on the user's request: %q.\n\n", request)
	b.WriteString("Program Name: A creative name based on the user's request.\n")
	b.WriteString("Description: A detailed description of the program's purpose, progression, and weekly structure.\n")
	if profile.Goal != "" {
		fmt.Fprintf(&b, "Tailor this for a user with the primary fitness goal of: %s.\n", profile.Goal)
	}
	b.WriteString(`
Formatting rules:
1. Full weekly schedule: the "workouts" array MUST contain an entry for every single day (Monday to Sunday) for the entire duration of the plan.
2. Start on Monday: each week's schedule must begin on a Monday.
3. Integrate rest days: include 'Rest' days within each 7-day week. A typical week should have 2-4 rest days.
4. Naming: name each entry with its week, day, and purpose, e.g. "Week 1, Day 1 (Monday): Upper Body Strength" or "Week 1, Day 2 (Tuesday): Rest".
5. Rest day object: a 'Rest' day must have an EMPTY "exercises" array ("exercises": []).
`)
	fmt.Fprintf(&b, "6. Exercise details: for training days, provide 5-8 exercises. For each exercise, specify its name, number of sets, a brief description, a metricValue (e.g., '8-12' for reps, or '500' for distance), and a metricUnit from: %s. For traditional lifting, use 'reps'. For cardio, use a distance unit.\n", unitList)
	fmt.Fprintf(&b, "7. JSON output: the final output must be a single, valid JSON object shaped %s, with no text, comments, or markdown before or after it.", programShape)
	return b.String()
}

func extractionPrompt() string {
	return fmt.Sprintf("Analyze the provided document, which contains a workout plan. Extract the program name, a brief description, and all the workouts. "+
		"For each workout, extract its name (e.g., 'Day 1' or 'Push Day') and a list of its exercises. "+
		"For each exercise, extract its name, the number of sets, a metricValue (e.g., '8-12' or '500'), a metricUnit from the list: %s, and any description. "+
		"Format the result as a single JSON object shaped %s. Do not include any explanatory text or markdown formatting before or after the JSON object.",
		unitList, programShape)
}
