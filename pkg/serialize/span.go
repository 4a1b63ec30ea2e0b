package serialize

import "github.com/nzsl-lang/nzslc/pkg/source"

func writeSpan(w *Writer, s source.Span) {
	w.WriteU32(uint32(s.File))
	w.WriteU32(s.StartLine)
	w.WriteU32(s.StartCol)
	w.WriteU32(s.EndLine)
	w.WriteU32(s.EndCol)
}

func readSpan(r *Reader) (source.Span, error) {
	file, err := r.ReadU32()
	if err != nil {
		return source.Span{}, err
	}
	//
	startLine, err := r.ReadU32()
	if err != nil {
		return source.Span{}, err
	}
	//
	startCol, err := r.ReadU32()
	if err != nil {
		return source.Span{}, err
	}
	//
	endLine, err := r.ReadU32()
	if err != nil {
		return source.Span{}, err
	}
	//
	endCol, err := r.ReadU32()
	if err != nil {
		return source.Span{}, err
	}
	//
	return source.Span{
		File:      source.FileHandle(file),
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   endLine,
		EndCol:    endCol,
	}, nil
}
