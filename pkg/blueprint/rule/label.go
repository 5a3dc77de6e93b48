package rule

const topDownAlignmentTolerance = 1
const topDownAlignmentTaper = 3.5

// LeftToRightLabelValuePair builds a predicate saying two fields are a
// left-to-right label/value pair: arranged left-to-right, bottom-aligned,
// with nothing between them.
func LeftToRightLabelValuePair() *AllHold {
	return NewAllHold(
		NewAreArranged(DirectionLeftToRight, 0.5, 0, nil),
		NewAreAligned(AlignBottoms, 0.5, 0.5),
		NothingBetweenHorizontallyDefault,
	)
}

// TopDownLabelValuePair builds a predicate saying two fields are a top-down
// label/value pair: arranged top-down, left-, right-, or center-aligned,
// with nothing between them.
func TopDownLabelValuePair() *AllHold {
	maxDistance := 2.0
	return NewAllHold(
		NewAreArranged(DirectionTopDown, 1, 0, &maxDistance),
		NothingBetweenVerticallyDefault,
		NewAnyHolds(
			NewAreAligned(AlignRightSides, topDownAlignmentTolerance, topDownAlignmentTaper),
			NewAreAligned(AlignLeftSides, topDownAlignmentTolerance, topDownAlignmentTaper),
			NewAreAligned(AlignVerticalMidlines, topDownAlignmentTolerance, topDownAlignmentTaper),
		),
	)
}
