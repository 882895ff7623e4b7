package detail

// Carousel tracks the selected image of a product. Index is always in
// [0,Len) when Len > 0.
type Carousel struct {
	index  int
	length int
}

func NewCarousel(length int) Carousel {
	if length < 0 {
		length = 0
	}
	return Carousel{length: length}
}

func (c Carousel) Index() int { return c.index }
func (c Carousel) Len() int { return c.length }

// Next wraps from the last image back to the first.
func (c Carousel) Next() Carousel { return c.Select(c.index + 1) }

// Prev wraps from the first image to the last.
func (c Carousel) Prev() Carousel { return c.Select(c.index - 1) }

// Select moves to i modulo the number of images.
func (c Carousel) Select(i int) Carousel {
	if c.length == 0 {
		return c
	}
	c.index = ((i % c.length) + c.length) % c.length
	return c
}

// Navigable reports whether arrows and thumbnails should be shown.
func (c Carousel) Navigable() bool { return c.length > 1 }
