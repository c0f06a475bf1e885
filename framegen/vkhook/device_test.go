package vkhook

import (
	"testing"

	"github.com/gogpu/wgpu/hal/vulkan/vk"
)

const (
	graphicsFamily = vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit | vk.QueueTransferBit)
	computeFamily  = vk.QueueFlags(vk.QueueComputeBit | vk.QueueTransferBit)
	transferFamily = vk.QueueFlags(vk.QueueTransferBit)
)

func TestPlanQueues(t *testing.T) {
	tests := []struct {
		name      string
		families  []vk.QueueFamilyProperties
		requested []vk.DeviceQueueCreateInfo
		want      []uint32 // queue count per create info
		extra     []ExtraQueues
	}{
		{
			name: "graphics and async compute",
			families: []vk.QueueFamilyProperties{
				{QueueFlags: graphicsFamily, QueueCount: 16},
				{QueueFlags: computeFamily, QueueCount: 2},
				{QueueFlags: transferFamily, QueueCount: 1},
			},
			requested: []vk.DeviceQueueCreateInfo{{QueueFamilyIndex: 0, QueueCount: 1}},
			want:      []uint32{3, 1},
			extra: []ExtraQueues{
				{Family: 0, First: 1, Count: 2, Flags: graphicsFamily},
				{Family: 1, First: 0, Count: 1, Flags: computeFamily},
			},
		},
		{
			name: "capped by family size",
			families: []vk.QueueFamilyProperties{
				{QueueFlags: graphicsFamily, QueueCount: 2},
			},
			requested: []vk.DeviceQueueCreateInfo{{QueueFamilyIndex: 0, QueueCount: 1}},
			want:      []uint32{2},
			extra:     []ExtraQueues{{Family: 0, First: 1, Count: 1, Flags: graphicsFamily}},
		},
		{
			name: "application already uses the compute family",
			families: []vk.QueueFamilyProperties{
				{QueueFlags: graphicsFamily, QueueCount: 1},
				{QueueFlags: computeFamily, QueueCount: 4},
			},
			requested: []vk.DeviceQueueCreateInfo{
				{QueueFamilyIndex: 0, QueueCount: 1},
				{QueueFamilyIndex: 1, QueueCount: 2},
			},
			want:  []uint32{1, 3},
			extra: []ExtraQueues{{Family: 1, First: 2, Count: 1, Flags: computeFamily}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			infos, extra := planQueues(tt.families, tt.requested)
			if len(infos) != len(tt.want) {
				t.Fatalf("planQueues() returned %d create infos, want %d", len(infos), len(tt.want))
			}
			for n, info := range infos {
				if info.QueueCount != tt.want[n] {
					t.Errorf("infos[%d].QueueCount = %d, want %d", n, info.QueueCount, tt.want[n])
				}
			}
			if len(extra) != len(tt.extra) {
				t.Fatalf("planQueues() extra = %+v, want %+v", extra, tt.extra)
			}
			for n := range extra {
				if extra[n] != tt.extra[n] {
					t.Errorf("extra[%d] = %+v, want %+v", n, extra[n], tt.extra[n])
				}
			}
			if tt.requested[0].QueueCount != 1 {
				t.Error("planQueues() modified the application's create infos")
			}
		})
	}
}

func TestCreateDeviceAddsQueues(t *testing.T) {
	h := newHooked(t)
	h.driver.families = []vk.QueueFamilyProperties{
		{QueueFlags: graphicsFamily, QueueCount: 16},
		{QueueFlags: computeFamily, QueueCount: 2},
	}

	priority := float32(0.5)
	queues := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: 0,
		QueueCount:       1,
		PQueuePriorities: &priority,
	}}
	info := vk.DeviceCreateInfo{QueueCreateInfoCount: 1, PQueueCreateInfos: &queues[0]}

	var device vk.Device
	create := h.proc(1, NameCreateDevice).(CreateDeviceFunc)
	if res := create(1, &info, nil, &device); res != vk.Success {
		t.Fatalf("CreateDevice() = %d", res)
	}
	if got := h.driver.counts[0]; len(got) != 2 || got[0] != 3 || got[1] != 1 {
		t.Errorf("driver queue counts = %v, want [3 1]", got)
	}
	if info.QueueCreateInfoCount != 1 || queues[0].QueueCount != 1 {
		t.Error("CreateDevice() modified the application's create info")
	}
	if !h.i.AsyncCompute(device) {
		t.Error("AsyncCompute() = false, want true")
	}
	if got := h.i.ExtraQueues(device); len(got) != 2 || got[0].First != 1 {
		t.Errorf("ExtraQueues() = %+v", got)
	}

	h.i.ForgetDevice(device)
	if h.i.AsyncCompute(device) {
		t.Error("AsyncCompute() after ForgetDevice = true")
	}
}

func TestCreateDeviceDefaultsMissingPriorities(t *testing.T) {
	h := newHooked(t)
	h.driver.families = []vk.QueueFamilyProperties{
		{QueueFlags: graphicsFamily, QueueCount: 16},
		{QueueFlags: computeFamily, QueueCount: 2},
	}

	queues := []vk.DeviceQueueCreateInfo{{QueueFamilyIndex: 0, QueueCount: 2}}
	info := vk.DeviceCreateInfo{QueueCreateInfoCount: 1, PQueueCreateInfos: &queues[0]}
	var device vk.Device
	if res := h.proc(1, NameCreateDevice).(CreateDeviceFunc)(1, &info, nil, &device); res != vk.Success {
		t.Fatalf("CreateDevice() = %d", res)
	}
	if len(h.driver.counts) != 1 {
		t.Fatalf("driver accepted %d creates, want the patched one only", len(h.driver.counts))
	}
	if got := h.driver.counts[0]; len(got) != 2 || got[0] != 4 || got[1] != 1 {
		t.Errorf("driver queue counts = %v, want [4 1]", got)
	}
	if got := h.i.ExtraQueues(device); len(got) != 2 || got[0].First != 2 {
		t.Errorf("ExtraQueues() = %+v, want graphics queues from index 2", got)
	}
}

func TestCreateDeviceWithoutComputeFamily(t *testing.T) {
	h := newHooked(t)
	h.driver.families = []vk.QueueFamilyProperties{{QueueFlags: graphicsFamily, QueueCount: 1}}

	queues := []vk.DeviceQueueCreateInfo{{QueueFamilyIndex: 0, QueueCount: 1}}
	info := vk.DeviceCreateInfo{QueueCreateInfoCount: 1, PQueueCreateInfos: &queues[0]}
	var device vk.Device
	if res := h.proc(1, NameCreateDevice).(CreateDeviceFunc)(1, &info, nil, &device); res != vk.Success {
		t.Fatalf("CreateDevice() = %d", res)
	}
	if got := h.driver.counts[0]; len(got) != 1 || got[0] != 1 {
		t.Errorf("driver queue counts = %v, want the application's [1]", got)
	}
	if h.i.AsyncCompute(device) {
		t.Error("AsyncCompute() = true without a compute family")
	}
}
