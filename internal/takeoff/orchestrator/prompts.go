package orchestrator

import (
	"encoding/json"
	"fmt"

	"github.com/abudker/takeoff24/internal/takeoff/model"
)

func orientationPass1Prompt(doc model.DocumentMap, pages []int, hints map[int]model.CVHints) string {
	return fmt.Sprintf(
		"Find the north arrow on the given pages and infer which side of the building\n"+
			"faces the street/entry. Pages to read: %v.\nDocument map: %s\nCV hints: %s",
		pages, mustJSON(doc), mustJSON(hints))
}

func orientationPass2Prompt(doc model.DocumentMap, pages []int, hints map[int]model.CVHints) string {
	return fmt.Sprintf(
		"Match elevation drawing labels (front/rear/left/right or street names) to\n"+
			"building faces. Pages to read: %v.\nDocument map: %s\nCV hints: %s",
		pages, mustJSON(doc), mustJSON(hints))
}

func projectInfoPrompt(doc model.DocumentMap, pages []int) string {
	return fmt.Sprintf("Extract project identity/location/classification fields. Pages: %v.\nDocument map: %s",
		pages, mustJSON(doc))
}

// domainPrompt builds one domain extractor's prompt: the document map,
// the domain's page set, the front-orientation context for zones/windows
// only, and the instruction-file pointer for that domain.
func domainPrompt(doc model.DocumentMap, pages []int, front *model.FrontOrientationContext, instructionPath string) string {
	prompt := fmt.Sprintf("Pages to read: %v.\nDocument map: %s\nInstructions: %s",
		pages, mustJSON(doc), instructionPath)
	if front != nil {
		prompt += fmt.Sprintf("\nFront orientation context (CBECC convention, east=front): %s", mustJSON(front))
	}
	return prompt
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
