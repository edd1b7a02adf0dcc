package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/danmuck/mirrorbridge/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

var extMediaTypes = map[string]string{
	".png":  frame.MediaPNG,
	".jpg":  frame.MediaJPEG,
	".jpeg": frame.MediaJPEG,
	".webp": frame.MediaWebP,
}

// source yields the i-th frame to send.
type source interface {
	Frame(i int) (frame.Frame, error)
}

type fileSource struct {
	paths []string
}

func newSource(dir string) (source, error) {
	if strings.TrimSpace(dir) == "" {
		return generatedSource{width: 64, height: 48}, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := extMediaTypes[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no image files in %s", dir)
	}
	sort.Strings(paths)
	return fileSource{paths: paths}, nil
}

func (s fileSource) Frame(i int) (frame.Frame, error) {
	path := s.paths[i%len(s.paths)]
	data, err := os.ReadFile(path)
	if err != nil {
		return frame.Frame{}, err
	}
	return frame.Frame{MediaType: extMediaTypes[strings.ToLower(filepath.Ext(path))], Payload: data}, nil
}

type generatedSource struct {
	width, height int
}

func (s generatedSource) Frame(i int) (frame.Frame, error) {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	bar := i % s.width
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			c := color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: 0x80, A: 0xFF}
			if x == bar {
				c = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return frame.Frame{}, err
	}
	return frame.Frame{MediaType: frame.MediaPNG, Payload: buf.Bytes()}, nil
}

type server struct {
	source   source
	interval time.Duration
	count    int
}

func (s *server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve handles one client at a time; the protocol has a single consumer.
func (s *server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	log.Info().Str("addr", ln.Addr().String()).Msg("mirrorsim listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		sent, err := s.stream(ctx, conn)
		_ = conn.Close()
		log.Info().Str("client", conn.RemoteAddr().String()).Int("frames", sent).Err(err).Msg("mirrorsim client done")
	}
}

func (s *server) stream(ctx context.Context, conn net.Conn) (int, error) {
	for i := 0; s.count == 0 || i < s.count; i++ {
		if ctx.Err() != nil {
			return i, ctx.Err()
		}
		f, err := s.source.Frame(i)
		if err != nil {
			return i, err
		}
		if err := frame.WriteFrame(conn, f); err != nil {
			return i, err
		}
		if s.interval > 0 {
			select {
			case <-ctx.Done():
				return i + 1, ctx.Err()
			case <-time.After(s.interval):
			}
		}
	}
	return s.count, nil
}
