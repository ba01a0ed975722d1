package domain

// OrphanedChunk is a chunk row whose vector point is missing from the index.
type OrphanedChunk struct {
	DocumentID int64  `json:"doc_id"`
	ChunkID    int64  `json:"chunk_id"`
	Position   int    `json:"position"`
	PointID    string `json:"vector_point_id"`
}

// ReconcileReport summarises a cross-store consistency check.
type ReconcileReport struct {
	DocumentsChecked int             `json:"documents_checked"`
	ChunksChecked    int             `json:"chunks_checked"`
	Orphans          []OrphanedChunk `json:"orphans"`
	Repaired         int             `json:"repaired"`
}

// Consistent returns true if every chunk has a live vector point.
func (r *ReconcileReport) Consistent() bool {
	return len(r.Orphans) == 0
}
