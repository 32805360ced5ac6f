// Package tileblit decodes a small JPEG into a fixed RGB565 frame buffer and
// repeatedly blits it to a random position on an SPI display.
//
// The decode side is push-style: a Decoder (normally *jpegdec.Image) calls back
// with one tile at a time from inside Decode, and FrameBuffer.Composite copies
// each tile into place. The blit side hands the frame to any periph.io
// display.Drawer, typically an *ili9341.Dev.
//
// # Pipeline
//
//	compressed bytes → Decode → Composite → FrameBuffer → Controller → display.Drawer
//
// Everything runs on the calling goroutine. Decode of one iteration finishes
// before its blit starts, and the blit finishes before the next decode, so the
// frame buffer needs no locking.
//
// # Basic Usage
//
//	dev, _ := ili9341.NewSPI(spiBus, dcPin, nil)
//	fb, _ := tileblit.NewFrameBuffer(64, 64)
//
//	var dec jpegdec.Image
//	loop, _ := tileblit.NewLoop(&dec, jpegData, fb, dev, ledPin, &tileblit.Opts{Seed: 0})
//	log.Fatal(loop.Run(context.Background()))
//
// # Tile Placement
//
// A tile with origin (X, Y) and width W writes row ry at flat offset
// (Y+ry)*frameWidth + X. Tiles narrower than the frame therefore keep the
// frame's stride. Any write that would land outside the buffer ends the tile
// early; the loop carries on with the next tile.
//
// # Failure Handling
//
// Decode failures are absorbed: the frame buffer keeps its previous pixels and
// the stale frame is drawn again. A failed draw stops Run with ErrDisplayWrite,
// or is logged and skipped when Opts.SkipDisplayErrors is set.
//
// # Pixel Depth
//
// 16-bit tiles are copied verbatim. 8-bit luma tiles (jpegdec.FlagGray8) are
// expanded to RGB565 grey. Other depths are dropped and counted by
// FrameBuffer.Unsupported.
package tileblit
