package pagination

// State is the view of already loaded pages used to pick a refresh key.
type State struct {
	// Pages are the loaded pages in list order.
	Pages []Page
	// AnchorPosition is the index in the merged list the consumer was last
	// looking at, or nil if unknown.
	AnchorPosition *int
}

// ClosestPageToPosition returns the page containing the item at position, or
// the nearest page when position lies outside the loaded range.
func (st State) ClosestPageToPosition(position int) *Page {
	if len(st.Pages) == 0 {
		return nil
	}
	if position < 0 {
		return &st.Pages[0]
	}

	offset := 0
	for i := range st.Pages {
		offset += len(st.Pages[i].Data)
		if position < offset {
			return &st.Pages[i]
		}
	}
	return &st.Pages[len(st.Pages)-1]
}

// RefreshKey returns the key to reload from after the list is invalidated,
// or nil to restart from the first page.
func (s *Source) RefreshKey(st State) *int {
	return refreshKey(st)
}

func refreshKey(st State) *int {
	if st.AnchorPosition == nil {
		return nil
	}
	page := st.ClosestPageToPosition(*st.AnchorPosition)
	if page == nil {
		return nil
	}
	if page.PrevKey != nil {
		return intPtr(*page.PrevKey + 1)
	}
	if page.NextKey != nil {
		return intPtr(*page.NextKey - 1)
	}
	return nil
}
