// Package generation wraps the generative model used by the resolver.
//
// A Generator takes a system prompt, the conversation so far and a required
// output schema, and returns the raw JSON object the model produced. The
// Gemini implementation asks for schema-constrained JSON output; decorators
// add per-call timeouts, retries on transient failures and metrics.
//
// Example usage:
//
//	gen, err := generation.NewGeminiGenerator(ctx, generation.GeminiConfig{
//	    APIKey: apiKey,
//	    Model:  "gemini-2.0-flash",
//	})
//	if err != nil {
//	    return err
//	}
//	gen = generation.WithRetry(generation.WithTimeout(gen, 30*time.Second), generation.DefaultRetryPolicy())
//
//	raw, err := gen.Generate(ctx, generation.Request{
//	    Purpose:      "action",
//	    SystemPrompt: prompt,
//	    Messages:     []generation.Message{generation.UserMessage(text)},
//	    Schema:       action.ResponseSchema(),
//	})
package generation
