package codec

import (
	"fmt"
	"math"

	"github.com/arloliu/plyio/encoding"
	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/section"
)

// walkBody reads the body described by hdr from src and reports it as events,
// ending with EventDone. Errors carry the position of src.
func walkBody(file string, hdr *section.Header, src encoding.Source, emit func(section.Event) error) error {
	at := func(err error) error {
		if src.Offset() >= 0 {
			return errs.AtOffset(file, src.Line(), src.Offset(), err)
		}

		return errs.AtLine(file, src.Line(), err)
	}

	for _, el := range hdr.Elements {
		if err := emit(section.Event{Kind: section.EventElementBegin, Element: el.Name, Count: el.Count}); err != nil {
			return at(err)
		}

		for row := range el.Count {
			if err := walkRow(el, row, src, emit); err != nil {
				return at(err)
			}
		}

		if err := emit(section.Event{Kind: section.EventElementEnd, Element: el.Name}); err != nil {
			return at(err)
		}
	}

	return at(emit(section.Event{Kind: section.EventDone}))
}

func walkRow(el section.Element, row int, src encoding.Source, emit func(section.Event) error) error {
	if err := emit(section.Event{Kind: section.EventRowBegin, Element: el.Name, Index: row}); err != nil {
		return err
	}

	// An element without properties has no body lines.
	if len(el.Properties) == 0 {
		return emit(section.Event{Kind: section.EventRowEnd, Element: el.Name, Index: row})
	}

	if err := src.BeginRow(); err != nil {
		return err
	}

	for i, p := range el.Properties {
		if !p.IsList() {
			v, err := src.Next(p.Type)
			if err != nil {
				return err
			}
			if err := emit(section.Event{Kind: section.EventScalar, Element: el.Name, Name: p.Name, Index: i, Value: v}); err != nil {
				return err
			}

			continue
		}

		size, err := src.Next(p.SizeType)
		if err != nil {
			return err
		}
		n := size.Int64()
		if n < 0 || n > math.MaxInt32 {
			return fmt.Errorf("%w: list %q declares %d items", errs.ErrValueFormat, p.Name, n)
		}

		if err := emit(section.Event{Kind: section.EventListBegin, Element: el.Name, Name: p.Name, Index: i, Count: int(n)}); err != nil {
			return err
		}
		for range n {
			v, err := src.Next(p.Type)
			if err != nil {
				return err
			}
			if err := emit(section.Event{Kind: section.EventListItem, Element: el.Name, Name: p.Name, Index: i, Value: v}); err != nil {
				return err
			}
		}
		if err := emit(section.Event{Kind: section.EventListEnd, Element: el.Name, Name: p.Name, Index: i}); err != nil {
			return err
		}
	}

	if err := src.EndRow(); err != nil {
		return err
	}

	return emit(section.Event{Kind: section.EventRowEnd, Element: el.Name, Index: row})
}
