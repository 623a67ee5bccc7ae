package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionJSON(t *testing.T) {
	t.Run("tagged forms round trip", func(t *testing.T) {
		for _, sel := range []Selection{{}, Predefined("KASHYAP"), Custom()} {
			raw, err := json.Marshal(sel)
			require.NoError(t, err)
			var out Selection
			require.NoError(t, json.Unmarshal(raw, &out))
			assert.Equal(t, sel, out)
		}
	})

	t.Run("legacy bare strings are accepted", func(t *testing.T) {
		var sel Selection
		require.NoError(t, json.Unmarshal([]byte(`"CUSTOM"`), &sel))
		assert.True(t, sel.IsCustom())

		require.NoError(t, json.Unmarshal([]byte(`"G-12"`), &sel))
		code, ok := sel.Code()
		assert.True(t, ok)
		assert.Equal(t, "G-12", code)
	})

	t.Run("sentinel never becomes a code", func(t *testing.T) {
		_, ok := ParseSelection("custom").Code()
		assert.False(t, ok)
	})
}

func TestFileRefs(t *testing.T) {
	t.Run("pending serializes as null", func(t *testing.T) {
		raw, err := json.Marshal(PendingFile(RawFile{Name: "a.pdf", Data: []byte("x")}))
		require.NoError(t, err)
		assert.JSONEq(t, `null`, string(raw))
	})

	t.Run("resolved round trips", func(t *testing.T) {
		ref := ResolvedFile("https://cdn.example/a.pdf", "a.pdf")
		raw, err := json.Marshal(ref)
		require.NoError(t, err)
		var out FileRef
		require.NoError(t, json.Unmarshal(raw, &out))
		assert.Equal(t, ref, out)
	})

	t.Run("resolved never goes back to pending", func(t *testing.T) {
		var files Files
		require.NoError(t, files.Attach(FileJanAadhaar, RawFile{Name: "a.pdf"}))
		require.NoError(t, files.Resolve(FileJanAadhaar, "https://cdn.example/a.pdf", "a.pdf"))
		assert.ErrorIs(t, files.Attach(FileJanAadhaar, RawFile{Name: "b.pdf"}), ErrFileAlreadyResolved)

		files.Remove(FileJanAadhaar)
		require.NoError(t, files.Attach(FileJanAadhaar, RawFile{Name: "b.pdf"}))
		assert.Equal(t, FilePending, files.Get(FileJanAadhaar).State())
	})

	t.Run("resolve requires a pending file", func(t *testing.T) {
		var files Files
		assert.Error(t, files.Resolve(FileProfilePhoto, "u", "n"))
	})
}

func TestDraftJSON(t *testing.T) {
	d := Draft{
		Step:         StepAddress,
		Phone:        "9998887770",
		ReferralCode: "AB12-3",
		Personal:     Personal{Name: "Asha Meena", Email: "asha@example.com"},
		Plan:         "annual",
		UpdatedAt:    time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC),
	}
	d.Kinship.Self = Custom()
	d.Kinship.Custom = map[Slot]string{SlotSelf: "Kashyap"}
	d.Files.ProfilePhoto = ResolvedFile("https://cdn.example/p.jpg", "p.jpg")
	d.Files.JanAadhaar = PendingFile(RawFile{Name: "j.pdf"})

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var out Draft
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, d.Persistable(), out)

	t.Run("unknown fields are tolerated", func(t *testing.T) {
		var tolerant Draft
		require.NoError(t, json.Unmarshal([]byte(`{"step":3,"phone":"9998887770","theme":"dark"}`), &tolerant))
		assert.Equal(t, StepReferral, tolerant.Step)
	})
}

func TestDraftClone(t *testing.T) {
	d := Draft{}
	d.Kinship.Custom = map[Slot]string{SlotMother: "Bharadwaj"}
	c := d.Clone()
	c.Kinship.Custom[SlotMother] = "changed"
	assert.Equal(t, "Bharadwaj", d.Kinship.Custom[SlotMother])
}
