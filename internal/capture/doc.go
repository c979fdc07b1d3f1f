// Package capture supplies raw bitmaps for screen regions. ScreenSource grabs
// pixels from the live displays; FileSource crops a region out of an image
// file for headless use. Both report failures as *Error with a Kind.
package capture
