// Package rgb565 provides a 16-bit RGB565 image format for SPI TFT display controllers.
//
// Each pixel is a 16-bit word holding 5 bits of red, 6 bits of green and 5 bits
// of blue. Words are stored as 2 bytes per pixel in either byte order; the
// ILI9341 expects big-endian (most significant byte first) on the wire.
//
// Memory layout example for a 2-pixel row in big-endian order:
//
//	Pixels: 0       1
//	Values: 0xF800  0x07E0
//	Bytes:  F8 00   07 E0
//	        (0xF800 = pure red, 0x07E0 = pure green)
//
// This package provides:
//
// - RGB565: A color type holding a packed 16-bit pixel
// - Model: A color model for converting standard Go colors to RGB565
// - Image: An image.Image implementation over a raw byte buffer
//
// Example usage:
//
//	// Create a 64x64 image in wire order
//	img := rgb565.New(image.Rect(0, 0, 64, 64), binary.BigEndian)
//
//	// Set a pixel to pure blue
//	img.SetRGB565(10, 20, rgb565.Pack(0, 0, 0xFF))
//
//	// Use with standard Go image operations
//	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
package rgb565
