package upscaler

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// TextureFormat is the pixel format of a bound image.
type TextureFormat = gputypes.TextureFormat

// ResourceTag names one of the images an upscaler consumes or produces.
type ResourceTag uint8

const (
	// ResourceColor is the jittered, aliased input color.
	ResourceColor ResourceTag = iota
	// ResourceDepth is the input depth buffer.
	ResourceDepth
	// ResourceMotion holds per-pixel motion vectors.
	ResourceMotion
	// ResourceOutput receives the upscaled color.
	ResourceOutput
	// ResourceReactive is the optional reactive mask.
	ResourceReactive
	// ResourceOpaque is the optional opaque-only color used to derive a reactive mask.
	ResourceOpaque

	resourceTagCount
)

// String returns the tag name.
func (t ResourceTag) String() string {
	switch t {
	case ResourceColor:
		return "Color"
	case ResourceDepth:
		return "Depth"
	case ResourceMotion:
		return "Motion"
	case ResourceOutput:
		return "Output"
	case ResourceReactive:
		return "Reactive"
	case ResourceOpaque:
		return "Opaque"
	default:
		return fmt.Sprintf("ResourceTag(%d)", uint8(t))
	}
}

// Required reports whether evaluation needs the tag bound.
func (t ResourceTag) Required() bool {
	return t <= ResourceOutput
}

// Aspect returns the view aspect used for the tag.
func (t ResourceTag) Aspect() gputypes.TextureAspect {
	if t == ResourceDepth {
		return gputypes.TextureAspectDepthOnly
	}
	return gputypes.TextureAspectAll
}

// Usage returns the access the upscaler needs on the tag's image.
func (t ResourceTag) Usage() gputypes.TextureUsage {
	if t == ResourceOutput {
		return gputypes.TextureUsageStorageBinding
	}
	return gputypes.TextureUsageTextureBinding
}

// Image is a host-owned native image.
type Image struct {
	Handle Handle
	Format gputypes.TextureFormat
	// Extent may be left zero; the upscaler then infers it from its settings.
	Extent gputypes.Extent3D
}

// Resource is an Image bound to a tag, plus the transient view the upscaler
// created for it.
type Resource struct {
	Image
	View  Handle
	Usage gputypes.TextureUsage
}

// Resources is the per-upscaler binding table.
type Resources struct {
	bound [resourceTagCount]Resource
	set   [resourceTagCount]bool
}

// Get returns the resource bound to tag.
func (r *Resources) Get(tag ResourceTag) (Resource, bool) {
	if tag >= resourceTagCount {
		return Resource{}, false
	}
	return r.bound[tag], r.set[tag]
}

// Bind replaces the binding for tag. The previous view is destroyed before
// the new one is created, so a rebinding never leaks a view. If the new view
// cannot be created the tag is left unbound.
func (r *Resources) Bind(g GraphicsBackend, tag ResourceTag, img Image) error {
	if tag >= resourceTagCount {
		return fmt.Errorf("upscaler: unknown resource tag %d", tag)
	}
	r.unbind(g, tag)

	view := img.Handle
	if g != nil {
		v, err := g.CreateImageView(img.Handle, img.Format, tag.Aspect())
		if err != nil {
			return fmt.Errorf("upscaler: create %s view: %w", tag, err)
		}
		view = v
	}
	r.bound[tag] = Resource{Image: img, View: view, Usage: tag.Usage()}
	r.set[tag] = true
	return nil
}

// Missing returns the required tags that are not bound.
func (r *Resources) Missing() []ResourceTag {
	var missing []ResourceTag
	for tag := ResourceTag(0); tag < resourceTagCount; tag++ {
		if tag.Required() && !r.set[tag] {
			missing = append(missing, tag)
		}
	}
	return missing
}

// Release destroys every view and clears the table.
func (r *Resources) Release(g GraphicsBackend) {
	for tag := ResourceTag(0); tag < resourceTagCount; tag++ {
		r.unbind(g, tag)
	}
}

func (r *Resources) unbind(g GraphicsBackend, tag ResourceTag) {
	if !r.set[tag] {
		return
	}
	if g != nil && r.bound[tag].View != 0 && r.bound[tag].View != r.bound[tag].Handle {
		g.DestroyImageView(r.bound[tag].View)
	}
	r.bound[tag] = Resource{}
	r.set[tag] = false
}
