package hid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/umap2/umap2go/usb/hid"
)

func TestUsagePageEncodesOneByteGlobalItem(t *testing.T) {
	item := hid.UsagePage{Page: hid.UsagePageGenericDesktop}
	assert.Equal(t, []byte{0x05, 0x01}, item.Bytes())
}

func TestUsageEncodesOneByteLocalItem(t *testing.T) {
	item := hid.Usage{Usage: hid.UsageKeyboard}
	assert.Equal(t, []byte{0x09, 0x06}, item.Bytes())
}

func TestReportCountAndSizeEncodeAsGlobalItems(t *testing.T) {
	assert.Equal(t, []byte{0x95, 0x08}, hid.ReportCount{Count: 8}.Bytes())
	assert.Equal(t, []byte{0x75, 0x01}, hid.ReportSize{Bits: 1}.Bytes())
}

func TestLogicalMinimumMaximumEncodeSigned(t *testing.T) {
	assert.Equal(t, []byte{0x15, 0x00}, hid.LogicalMinimum{Min: 0}.Bytes())
	assert.Equal(t, []byte{0x25, 0x01}, hid.LogicalMaximum{Max: 1}.Bytes())
}

func TestLogicalMaximumPromotesToTwoBytesWhenOutOfInt8Range(t *testing.T) {
	item := hid.LogicalMaximum{Max: 255}
	assert.Equal(t, []byte{0x26, 0xff, 0x00}, item.Bytes())
}

func TestInputOutputFeatureEncodeAsOneByteMainItems(t *testing.T) {
	assert.Equal(t, []byte{0x81, 0x02}, hid.Input{Flags: hid.MainVar}.Bytes())
	assert.Equal(t, []byte{0x91, 0x02}, hid.Output{Flags: hid.MainVar}.Bytes())
	assert.Equal(t, []byte{0xb1, 0x02}, hid.Feature{Flags: hid.MainVar}.Bytes())
}

func TestCollectionWrapsItemsWithOpenAndEndTags(t *testing.T) {
	c := hid.Collection{
		Kind: hid.CollectionApplication,
		Items: []hid.Item{
			hid.UsagePage{Page: hid.UsagePageGenericDesktop},
		},
	}
	want := []byte{0xa1, 0x01, 0x05, 0x01, 0xc0}
	assert.Equal(t, want, c.Bytes())
}

func TestReportConcatenatesItemsInOrder(t *testing.T) {
	r := hid.Report{
		Items: []hid.Item{
			hid.UsagePage{Page: hid.UsagePageKeyboard},
			hid.ReportCount{Count: 8},
			hid.Input{Flags: hid.MainConst},
		},
	}
	want := append(append(
		hid.UsagePage{Page: hid.UsagePageKeyboard}.Bytes(),
		hid.ReportCount{Count: 8}.Bytes()...),
		hid.Input{Flags: hid.MainConst}.Bytes()...)
	assert.Equal(t, want, r.Bytes())
}

func TestReportIDEncodesAsOneByteGlobalItem(t *testing.T) {
	assert.Equal(t, []byte{0x85, 0x01}, hid.ReportID{ID: 1}.Bytes())
}

func TestAnyItemEncodesArbitraryTagAndData(t *testing.T) {
	item := hid.AnyItem{Type: hid.ItemTypeGlobal, Tag: 0x03, Data: hid.Data{0x00}}
	assert.Equal(t, []byte{0x35, 0x00}, item.Bytes())
}

func TestUsageMinimumMaximumEncodeAsLocalItems(t *testing.T) {
	assert.Equal(t, []byte{0x19, 0x00}, hid.UsageMinimum{Min: 0}.Bytes())
	assert.Equal(t, []byte{0x29, 0x65}, hid.UsageMaximum{Max: 0x65}.Bytes())
}
