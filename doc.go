// Package cleave is a long-text segmentation and generation agent for Go.
//
// It splits an arbitrary input document into bounded-size chunks that try to
// respect semantic boundaries (code constructs, headings, paragraphs,
// sentences), turns the chunks into a generation plan, produces an output
// text either locally or through an HTTP text-generation endpoint, and
// optionally self-checks the result.
//
// # Quick start
//
//	seg, _ := segment.New(
//		segment.Config{MaxChunkChars: 1200, OverlapChars: 100, EnableOverlap: true},
//		classifierCfg,
//		segment.WithStructuralSplitter(astgrep.New(astgrep.Config{
//			Command:  "sg",
//			Language: "python",
//			Patterns: []string{"def $F($$$): $$$"},
//		})),
//	)
//	agent := cleave.NewAgent(seg, cleave.NewPlanner(200), cleave.NewTextGenerator(nil))
//	result, err := agent.Run(ctx, "Summarize the module.", document)
//
// # Core interfaces
//
// The root package defines the contracts the subpackages implement:
//
//   - [Generator] — text generation backend (provider/httpgen)
//   - [PerplexityScorer] — fluency scoring for the self-check step
//   - [RunStore] — run history persistence (store/sqlite, store/postgres)
//   - segment.StructuralSplitter — syntax-aware splitting (segment/astgrep)
//
// The segmentation engine lives in the segment package, keeps no state
// across calls, and is safe to use concurrently.
package cleave
