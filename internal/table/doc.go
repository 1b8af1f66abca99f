// Package table provides the in-memory tabular dataset used by the cleaning step.
//
// A Table is read from CSV in one pass, filtered into new tables, and written
// back out. Cell text is kept verbatim; a cell is either present or missing,
// and missing cells are detected with the same NA markers pandas uses by
// default when reading CSV files.
//
// # Usage
//
//	t, err := table.ReadFile("sample.csv")
//	if err != nil {
//	    return err
//	}
//	inRange, err := t.Between("price", 10, 350)
//	if err != nil {
//	    return err
//	}
//	clean := inRange.DropMissing()
//	return clean.WriteFile("clean_sample.csv")
package table
