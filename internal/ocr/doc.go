package ocr

// Two backends are available. The default "exec" backend runs the tesseract
// binary and parses its TSV output, so no cgo is required. The "gosseract"
// backend links libtesseract directly and is enabled with the build tag
// `gosseract`.
//
// Example:
//   go build -tags=gosseract ./...
