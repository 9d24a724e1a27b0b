package content

import (
	"testing"
	"time"

	"github.com/digitorus/pdfverify/internal/fontmodel"
	"github.com/digitorus/pdfverify/internal/pdfobj"
)

func TestExtract_SimpleTj(t *testing.T) {
	fonts := map[string]fontmodel.Font{
		"F1": {BaseFont: "Helvetica", Encoding: ""},
	}
	data := []byte("BT /F1 12 Tf 72 712 Td (Hello) Tj ET")
	got := Extract(&pdfobj.Table{}, data, pdfobj.Dict(nil), fonts)
	if got != "Hello" {
		t.Errorf("got %q, want Hello", got)
	}
}

func TestExtract_TJArrayInsertsSpaceForLargeAdjustment(t *testing.T) {
	fonts := map[string]fontmodel.Font{"F1": {}}
	data := []byte(`BT /F1 12 Tf [(Hel) -250 (lo)] TJ ET`)
	got := Extract(&pdfobj.Table{}, data, pdfobj.Dict(nil), fonts)
	if got != "Hel lo" {
		t.Errorf("got %q, want \"Hel lo\"", got)
	}
}

func TestExtract_TJArraySkipsSmallAdjustment(t *testing.T) {
	fonts := map[string]fontmodel.Font{"F1": {}}
	data := []byte(`BT /F1 12 Tf [(Hel) -120 (lo)] TJ ET`)
	got := Extract(&pdfobj.Table{}, data, pdfobj.Dict(nil), fonts)
	if got != "Hello" {
		t.Errorf("got %q, want Hello (adjustment not past the -200 threshold)", got)
	}
}

func TestExtract_QuoteOperatorsFlushBeforeAppending(t *testing.T) {
	fonts := map[string]fontmodel.Font{"F1": {}}
	data := []byte(`BT /F1 12 Tf (one) Tj (two) ' (three) " ET`)
	got := Extract(&pdfobj.Table{}, data, pdfobj.Dict(nil), fonts)
	if got != "one two three" {
		t.Errorf("got %q, want \"one two three\"", got)
	}
}

func TestExtract_TextOutsideBTETIsIgnored(t *testing.T) {
	fonts := map[string]fontmodel.Font{"F1": {}}
	data := []byte(`/F1 12 Tf (ignored) Tj`)
	got := Extract(&pdfobj.Table{}, data, pdfobj.Dict(nil), fonts)
	if got != "" {
		t.Errorf("got %q, want empty (no BT/ET wrapping)", got)
	}
}

func TestExtract_FormXObjectRecursesAndMergesFonts(t *testing.T) {
	formData := []byte("BT /F2 10 Tf (FromForm) Tj ET")
	form := pdfobj.Stream(map[string]pdfobj.Value{
		"Subtype": pdfobj.Name("Form"),
		"Resources": pdfobj.Dict(map[string]pdfobj.Value{
			"Font": pdfobj.Dict(map[string]pdfobj.Value{
				"F2": pdfobj.Reference(2, 0),
			}),
		}),
	}, formData)

	table := &pdfobj.Table{Objects: map[pdfobj.Ref]pdfobj.Value{
		{Num: 1, Gen: 0}: form,
		{Num: 2, Gen: 0}: pdfobj.Dict(map[string]pdfobj.Value{
			"Subtype":  pdfobj.Name("Type1"),
			"BaseFont": pdfobj.Name("Courier"),
			"Encoding": pdfobj.Name("WinAnsiEncoding"),
		}),
	}}

	resources := pdfobj.Dict(map[string]pdfobj.Value{
		"XObject": pdfobj.Dict(map[string]pdfobj.Value{
			"Fm1": pdfobj.Reference(1, 0),
		}),
	})

	data := []byte(`/Fm1 Do`)
	got := Extract(table, data, resources, map[string]fontmodel.Font{})
	if got != "FromForm" {
		t.Errorf("got %q, want FromForm", got)
	}
}

func TestResolveFormXObject_BreaksSelfReferenceCycle(t *testing.T) {
	table := &pdfobj.Table{Objects: map[pdfobj.Ref]pdfobj.Value{
		{Num: 1, Gen: 0}: pdfobj.Stream(map[string]pdfobj.Value{
			"Subtype": pdfobj.Name("Form"),
			"Resources": pdfobj.Dict(map[string]pdfobj.Value{
				"XObject": pdfobj.Dict(map[string]pdfobj.Value{
					"Self": pdfobj.Reference(1, 0),
				}),
			}),
		}, []byte(`/Self Do`)),
	}}
	resources := pdfobj.Dict(map[string]pdfobj.Value{
		"XObject": pdfobj.Dict(map[string]pdfobj.Value{"Self": pdfobj.Reference(1, 0)}),
	})

	done := make(chan string, 1)
	go func() {
		done <- resolveFormXObject(table, resources, "Self", make(map[pdfobj.Ref]bool))
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("resolveFormXObject did not terminate on a self-referential Form XObject")
	}
}
