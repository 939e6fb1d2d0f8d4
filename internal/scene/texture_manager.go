package scene

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"Shadow3D/internal/gpu"
	"Shadow3D/internal/logger"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// TextureStats provides debugging and profiling information
type TextureStats struct {
	TotalTextures  int
	CacheHits      int
	CacheMisses    int
	ActiveTextures int
}

// TextureManager loads colour textures once per path and frees them when
// the last reference is released.
type TextureManager struct {
	dev             gpu.Device
	textureCache    map[string]uint32 // path -> texture ID
	textureRefCount map[uint32]int
	texturePaths    map[uint32]string
	mu              sync.RWMutex
	stats           TextureStats
}

func NewTextureManager(dev gpu.Device) *TextureManager {
	return &TextureManager{
		dev:             dev,
		textureCache:    make(map[string]uint32),
		textureRefCount: make(map[uint32]int),
		texturePaths:    make(map[uint32]string),
	}
}

// LoadTexture loads a texture from file or returns the cached one, taking a
// reference either way.
func (tm *TextureManager) LoadTexture(filePath string) (uint32, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if textureID, exists := tm.textureCache[filePath]; exists {
		tm.textureRefCount[textureID]++
		tm.stats.CacheHits++
		logger.Log.Debug("Texture cache hit",
			zap.String("path", filePath),
			zap.Uint32("textureID", textureID),
			zap.Int("refCount", tm.textureRefCount[textureID]))
		return textureID, nil
	}

	tm.stats.CacheMisses++

	imgFile, err := os.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer imgFile.Close()

	img, format, err := image.Decode(imgFile)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", filePath, err)
	}

	textureID := tm.upload(img)
	tm.cache(filePath, textureID)

	logger.Log.Info("Texture loaded and cached",
		zap.String("path", filePath),
		zap.String("format", format),
		zap.Uint32("textureID", textureID),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))
	return textureID, nil
}

// CreateTextureFromImage uploads img under name, for generated textures.
func (tm *TextureManager) CreateTextureFromImage(img image.Image, name string) uint32 {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if textureID, exists := tm.textureCache[name]; exists {
		tm.textureRefCount[textureID]++
		tm.stats.CacheHits++
		return textureID
	}

	textureID := tm.upload(img)
	tm.cache(name, textureID)
	logger.Log.Debug("Texture created from image",
		zap.String("name", name),
		zap.Uint32("textureID", textureID))
	return textureID
}

func (tm *TextureManager) cache(key string, textureID uint32) {
	tm.textureCache[key] = textureID
	tm.textureRefCount[textureID] = 1
	tm.texturePaths[textureID] = key
	tm.stats.TotalTextures++
	tm.stats.ActiveTextures++
}

// upload converts img to RGBA and flips it so row 0 is the bottom, as GL
// expects.
func (tm *TextureManager) upload(img image.Image) uint32 {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	return tm.dev.NewColorTexture(int32(b.Dx()), int32(b.Dy()), flipRows(rgba))
}

func flipRows(rgba *image.RGBA) []uint8 {
	h := rgba.Rect.Dy()
	out := make([]uint8, len(rgba.Pix))
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : (y+1)*rgba.Stride]
		copy(out[(h-1-y)*rgba.Stride:], src)
	}
	return out
}

func (tm *TextureManager) AddReference(textureID uint32) {
	if textureID == 0 {
		return
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.textureRefCount[textureID]++
}

// ReleaseTexture drops one reference and frees the texture at zero.
func (tm *TextureManager) ReleaseTexture(textureID uint32) {
	if textureID == 0 {
		return
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	refCount, exists := tm.textureRefCount[textureID]
	if !exists {
		logger.Log.Warn("Attempted to release unknown texture", zap.Uint32("textureID", textureID))
		return
	}

	refCount--
	tm.textureRefCount[textureID] = refCount
	if refCount > 0 {
		return
	}

	tm.dev.DeleteTexture(textureID)
	path := tm.texturePaths[textureID]
	delete(tm.textureCache, path)
	delete(tm.textureRefCount, textureID)
	delete(tm.texturePaths, textureID)
	tm.stats.ActiveTextures--

	logger.Log.Debug("Texture freed", zap.Uint32("textureID", textureID), zap.String("path", path))
}

func (tm *TextureManager) GetStats() TextureStats {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	stats := tm.stats
	stats.ActiveTextures = len(tm.textureRefCount)
	return stats
}

// Clear frees every texture regardless of references.
func (tm *TextureManager) Clear() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	for textureID := range tm.textureRefCount {
		tm.dev.DeleteTexture(textureID)
	}
	tm.textureCache = make(map[string]uint32)
	tm.textureRefCount = make(map[uint32]int)
	tm.texturePaths = make(map[uint32]string)
	tm.stats.ActiveTextures = 0
}

// Checker returns a size x size checkerboard of cells x cells squares.
func Checker(size, cells int, a, b color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cell := size / cells
	if cell == 0 {
		cell = 1
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// Plain returns a 1x1 image of c, the texture of untextured objects.
func Plain(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, c)
	return img
}
