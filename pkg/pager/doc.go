// Package pager implements a paged view over a request's responses.
//
// A View owns the loaded response list and a window into it. It fetches
// batches through a Fetcher and pushes rendered windows to a Surface, which
// models the two page elements the view drives:
//
//   - #request-responses-table receives the rendered window
//   - .load-more-responses is shown or hidden
//
// Example usage:
//
//	doc := pager.NewDocument()
//	view := pager.New(responsesClient, doc)
//	if err := view.Initialize(ctx); err != nil {
//		// logged by the view; the document stays empty
//	}
//	view.ShowNext()
//	if doc.LoadMoreVisible() {
//		_ = view.LoadMore(ctx)
//	}
//
// Every fetch carries a sequence token. When fetches overlap, only the most
// recently issued one is applied; older completions return ErrSuperseded.
//
// Windows are clamped to the loaded list, so the last window of a list whose
// length is not a multiple of the window size is simply shorter.
package pager
