package neural

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

func TestGenomeRecordRoundTrip(t *testing.T) {
	genome := CreateMinimalBrainGenome(12, 0.75)
	addNode(genome, NewGenomeIDGenerator(), HiddenActivators(), rand.New(rand.NewSource(8)))

	restored, err := FromRecord(ToRecord(genome))
	if err != nil {
		t.Fatalf("FromRecord failed: %v", err)
	}
	if restored.Id != genome.Id {
		t.Errorf("ID = %d, want %d", restored.Id, genome.Id)
	}
	if len(restored.Nodes) != len(genome.Nodes) || len(restored.Genes) != len(genome.Genes) {
		t.Fatalf("restored %d nodes %d genes, want %d and %d",
			len(restored.Nodes), len(restored.Genes), len(genome.Nodes), len(genome.Genes))
	}
	for i, g := range genome.Genes {
		r := restored.Genes[i]
		if r.InnovationNum != g.InnovationNum || r.IsEnabled != g.IsEnabled || r.Link.ConnectionWeight != g.Link.ConnectionWeight {
			t.Errorf("gene %d differs after round trip", i)
		}
	}

	// both genomes must behave the same
	obs := []float64{0.1, 0.2, 0.3, 0.4}
	a, _ := NewBrainController(genome)
	b, err := NewBrainController(restored)
	if err != nil {
		t.Fatalf("restored genome does not build: %v", err)
	}
	outA, _ := a.Think(obs)
	outB, _ := b.Think(obs)
	if outA[0] != outB[0] {
		t.Errorf("outputs differ: %v vs %v", outA[0], outB[0])
	}
}

func TestFromRecordRejects(t *testing.T) {
	valid := ToRecord(CreateMinimalBrainGenome(1, 0.5))

	tests := []struct {
		name   string
		mutate func(r *GenomeRecord)
	}{
		{"unknown node type", func(r *GenomeRecord) { r.Nodes[0].Type = "sensor" }},
		{"duplicate node", func(r *GenomeRecord) { r.Nodes[1].ID = r.Nodes[0].ID }},
		{"dangling gene", func(r *GenomeRecord) { r.Genes[0].Out = 99 }},
		{"missing output", func(r *GenomeRecord) {
			r.Nodes = r.Nodes[:BrainInputs]
			r.Genes = nil
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := GenomeRecord{ID: valid.ID}
			rec.Nodes = append([]NodeRecord(nil), valid.Nodes...)
			rec.Genes = append([]GeneRecord(nil), valid.Genes...)
			tc.mutate(&rec)

			if _, err := FromRecord(rec); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEncodingForPath(t *testing.T) {
	tests := []struct {
		path string
		want genetics.GenomeEncoding
	}{
		{"champion.yaml", genetics.YAMLGenomeEncoding},
		{"champion.YML", genetics.YAMLGenomeEncoding},
		{"champion.genome", genetics.PlainGenomeEncoding},
		{"champion", genetics.PlainGenomeEncoding},
	}
	for _, tc := range tests {
		if got := EncodingForPath(tc.path); got != tc.want {
			t.Errorf("EncodingForPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestSaveLoadGenomePlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "champion.genome")
	genome := CreateMinimalBrainGenome(5, 0.5)

	if err := SaveGenome(path, genome); err != nil {
		t.Fatalf("SaveGenome failed: %v", err)
	}
	loaded, err := LoadGenome(path)
	if err != nil {
		t.Fatalf("LoadGenome failed: %v", err)
	}
	if loaded.Id != 5 || len(loaded.Genes) != len(genome.Genes) {
		t.Errorf("loaded genome %d with %d genes", loaded.Id, len(loaded.Genes))
	}
}

func TestLoadGenomeMissingFile(t *testing.T) {
	if _, err := LoadGenome(filepath.Join(t.TempDir(), "missing.genome")); err == nil {
		t.Error("expected error for missing file")
	}
}
