package tryon

import "fmt"

// DefaultInstructions replaces empty shopper instructions.
const DefaultInstructions = "Ensure a natural fit."

const promptTemplate = `You are an expert AI fashion stylist and image editor.

Input 1: An image of a user (the shopper).
Input 2: An image of a clothing item (the product).

Task: Create a photorealistic image of the user from Input 1 wearing the clothing item from Input 2.

Requirements:
1. Preserve the user's exact pose, body shape, skin tone, and facial features.
2. Preserve the background of Input 1 exactly.
3. Fit the clothing naturally onto the user's body (Virtual Try-On).
4. Adhere to these specific adjustments: %s

Output ONLY the generated image.`

// BuildPrompt renders the fixed try-on instruction. Shopper instructions are
// inserted verbatim; only an empty string is replaced by DefaultInstructions.
func BuildPrompt(instructions string) string {
	if instructions == "" {
		instructions = DefaultInstructions
	}
	return fmt.Sprintf(promptTemplate, instructions)
}
