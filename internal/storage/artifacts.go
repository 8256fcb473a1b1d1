package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"math"
	"time"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

// FileArtifacts is the full snapshot of everything a FileState owns:
// its chunks, each chunk's embeddings and outgoing links, and the file's
// symbols. It is the unit ReplaceFileArtifacts atomically swaps and the
// unit the rollback path restores.
type FileArtifacts struct {
	File       *core.FileState
	Chunks     []*core.Chunk
	Embeddings []*core.Embedding
	Links      []*core.Link
	Symbols    []*core.Symbol
}

// ArtifactRepository is the context indexer's storage surface.
type ArtifactRepository struct {
	store *Store
	log   *logging.Logger
}

// Artifacts returns the Store's ArtifactRepository.
func (s *Store) Artifacts() *ArtifactRepository {
	return &ArtifactRepository{store: s, log: s.log}
}

// FetchFileArtifactsByPath returns the full artifact snapshot for
// relativePath, or nil if the file has no stored FileState.
func (r *ArtifactRepository) FetchFileArtifactsByPath(ctx context.Context, relativePath string) (*FileArtifacts, error) {
	var result *FileArtifacts
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		file, err := fetchFileByPath(ctx, q, relativePath)
		if err != nil {
			return err
		}
		if file == nil {
			return nil
		}
		chunks, err := fetchChunksForFile(ctx, q, file.Id)
		if err != nil {
			return err
		}
		chunkIDs := make([]core.ChunkId, len(chunks))
		for i, c := range chunks {
			chunkIDs[i] = c.Id
		}
		embeddings, err := fetchEmbeddingsForChunks(ctx, q, chunkIDs)
		if err != nil {
			return err
		}
		links, err := fetchLinksForChunks(ctx, q, chunkIDs)
		if err != nil {
			return err
		}
		symbols, err := fetchSymbolsForFile(ctx, q, file.Id)
		if err != nil {
			return err
		}
		result = &FileArtifacts{File: file, Chunks: chunks, Embeddings: embeddings, Links: links, Symbols: symbols}
		return nil
	})
	if err != nil {
		return nil, core.ErrPersistenceFailure(relativePath, err)
	}
	return result, nil
}

// ReplaceFileArtifacts implements the transactional per-file replace from
// §4.10: delete the file's dependents (embeddings, links, symbols, and
// usage_metrics if any reference its chunks), then its chunks, then insert
// the new FileState/chunks/embeddings/links/symbols — all inside one
// transaction, so a mid-replace error rolls back to the exact pre-call
// state with no further action needed (SQLite's transaction semantics
// already satisfy T5 here).
//
// The explicit snapshot-and-reinsert path exists for the case spec.md
// anticipates but this single-database implementation cannot hit on its
// own: a downstream caller (the batch indexer) that treats a partially
// applied replace as committed because it observed a non-transactional
// side effect (e.g. it already advanced its own progress counters) before
// checking the returned error. Re-deriving the pre-call state from a
// snapshot taken before the attempt, rather than trusting that the
// transaction rolled back, is what makes that caller-side assumption safe
// even if this function is later backed by a store that cannot offer a
// single atomic transaction across all five tables.
func (r *ArtifactRepository) ReplaceFileArtifacts(ctx context.Context, file *core.FileState, chunks []*core.Chunk, embeddings []*core.Embedding, links []*core.Link, symbols []*core.Symbol) error {
	snapshot, err := r.FetchFileArtifactsByPath(ctx, file.RelativePath)
	if err != nil {
		return err
	}

	replaceErr := r.store.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		existing, err := fetchFileByPath(ctx, tx, file.RelativePath)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := deleteFileDependents(ctx, tx, existing.Id); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM file_state WHERE id = ?`, string(existing.Id)); err != nil {
				return err
			}
		}
		if err := insertFileState(ctx, tx, file); err != nil {
			return err
		}
		for _, c := range chunks {
			if err := insertChunk(ctx, tx, c); err != nil {
				return err
			}
		}
		for _, e := range embeddings {
			if err := insertEmbedding(ctx, tx, e); err != nil {
				return err
			}
		}
		for _, l := range links {
			if err := insertLink(ctx, tx, l); err != nil {
				return err
			}
		}
		for _, sym := range symbols {
			if err := insertSymbol(ctx, tx, sym); err != nil {
				return err
			}
		}
		return nil
	})
	if replaceErr == nil {
		return nil
	}

	if snapshot != nil {
		if rollbackErr := r.restoreSnapshot(ctx, snapshot); rollbackErr != nil {
			r.log.Error("rollback failed after replaceFileArtifacts error",
				"path", file.RelativePath, "original_error", replaceErr, "rollback_error", rollbackErr)
			_ = core.ErrRollbackFailure(file.RelativePath, rollbackErr)
		}
	}
	return core.ErrIndexingFailure(file.RelativePath, replaceErr)
}

// restoreSnapshot re-inserts a previously captured FileArtifacts snapshot
// in a fresh transaction, undoing whatever a failed replace left behind.
func (r *ArtifactRepository) restoreSnapshot(ctx context.Context, snapshot *FileArtifacts) error {
	return r.store.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		existing, err := fetchFileByPath(ctx, tx, snapshot.File.RelativePath)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := deleteFileDependents(ctx, tx, existing.Id); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM file_state WHERE id = ?`, string(existing.Id)); err != nil {
				return err
			}
		}
		if err := insertFileState(ctx, tx, snapshot.File); err != nil {
			return err
		}
		for _, c := range snapshot.Chunks {
			if err := insertChunk(ctx, tx, c); err != nil {
				return err
			}
		}
		for _, e := range snapshot.Embeddings {
			if err := insertEmbedding(ctx, tx, e); err != nil {
				return err
			}
		}
		for _, l := range snapshot.Links {
			if err := insertLink(ctx, tx, l); err != nil {
				return err
			}
		}
		for _, sym := range snapshot.Symbols {
			if err := insertSymbol(ctx, tx, sym); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteFileArtifacts removes a file's state and everything it owns,
// for deletion propagation (§4.10 "deletion propagation").
func (r *ArtifactRepository) DeleteFileArtifacts(ctx context.Context, relativePath string) error {
	err := r.store.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		file, err := fetchFileByPath(ctx, tx, relativePath)
		if err != nil {
			return err
		}
		if file == nil {
			return nil
		}
		if err := deleteFileDependents(ctx, tx, file.Id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM file_state WHERE id = ?`, string(file.Id))
		return err
	})
	if err != nil {
		return core.ErrIndexingFailure(relativePath, err)
	}
	return nil
}

// FileStateByPath returns the stored FileState for relativePath, or nil.
func (r *ArtifactRepository) FileStateByPath(ctx context.Context, relativePath string) (*core.FileState, error) {
	var fs *core.FileState
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		f, err := fetchFileByPath(ctx, q, relativePath)
		fs = f
		return err
	})
	if err != nil {
		return nil, core.ErrPersistenceFailure(relativePath, err)
	}
	return fs, nil
}

// AllFileStates returns every non-deleted FileState, for change detection's
// deleted-file comparison (files present in the store but absent on disk).
func (r *ArtifactRepository) AllFileStates(ctx context.Context) ([]*core.FileState, error) {
	var out []*core.FileState
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, `
			SELECT id, relative_path, content_hash, size_bytes, mtime_ns, language, kind,
				fingerprint, indexed_at, is_deleted
			FROM file_state WHERE is_deleted = 0`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			fs, err := scanFileState(rows)
			if err != nil {
				return err
			}
			out = append(out, fs)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, core.ErrPersistenceFailure("", err)
	}
	return out, nil
}

// EmbeddingsByModel returns every stored embedding for the given model
// name, joined with its owning chunk's file id for retrieval filtering.
type EmbeddingWithChunk struct {
	Embedding *core.Embedding
	Chunk     *core.Chunk
}

func (r *ArtifactRepository) EmbeddingsByModel(ctx context.Context, model string) ([]EmbeddingWithChunk, error) {
	var out []EmbeddingWithChunk
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, `
			SELECT e.id, e.chunk_id, e.model, e.dimension, e.vector, e.created_at,
				c.file_id, c.ordinal, c.kind, c.start_line, c.end_line, c.token_estimate,
				c.content, c.summary, c.created_at
			FROM embeddings e JOIN chunks c ON c.id = e.chunk_id
			WHERE e.model = ?`, model)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var embID, chunkID, embModel string
			var dim int
			var vecBlob []byte
			var embCreated time.Time
			var fileID, kind string
			var ordinal int
			var startLine, endLine, tokenEstimate sql.NullInt64
			var content string
			var summary sql.NullString
			var chunkCreated time.Time
			if err := rows.Scan(&embID, &chunkID, &embModel, &dim, &vecBlob, &embCreated,
				&fileID, &ordinal, &kind, &startLine, &endLine, &tokenEstimate, &content, &summary, &chunkCreated); err != nil {
				return err
			}
			vec := decodeVector(vecBlob)
			chunk := &core.Chunk{
				Id: core.ChunkId(chunkID), FileId: core.FileId(fileID), Ordinal: ordinal,
				Kind: core.ChunkKind(kind), Content: content, CreatedAt: chunkCreated,
			}
			if startLine.Valid {
				v := int(startLine.Int64)
				chunk.StartLine = &v
			}
			if endLine.Valid {
				v := int(endLine.Int64)
				chunk.EndLine = &v
			}
			if tokenEstimate.Valid {
				v := int(tokenEstimate.Int64)
				chunk.TokenEstimate = &v
			}
			if summary.Valid {
				chunk.Summary = &summary.String
			}
			out = append(out, EmbeddingWithChunk{
				Embedding: &core.Embedding{
					Id: core.EmbeddingId(embID), ChunkId: core.ChunkId(chunkID), Model: embModel,
					Dimension: dim, Vector: vec, CreatedAt: embCreated,
				},
				Chunk: chunk,
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, core.ErrPersistenceFailure("", err)
	}
	return out, nil
}

// ChunksForFile returns all chunks owned by fileID in ordinal order.
func (r *ArtifactRepository) ChunksForFile(ctx context.Context, fileID core.FileId) ([]*core.Chunk, error) {
	var out []*core.Chunk
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		chunks, err := fetchChunksForFile(ctx, q, fileID)
		out = chunks
		return err
	})
	if err != nil {
		return nil, core.ErrPersistenceFailure(string(fileID), err)
	}
	return out, nil
}

// SymbolsMatching returns symbols whose name matches a LIKE pattern, for
// the retrieval engine's symbol provider.
func (r *ArtifactRepository) SymbolsMatching(ctx context.Context, pattern string, limit int) ([]*core.Symbol, error) {
	var out []*core.Symbol
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, `
			SELECT id, file_id, chunk_id, type, name, qualified_name, signature,
				start_line, end_line, language
			FROM symbols WHERE name LIKE ? LIMIT ?`, pattern, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			sym, err := scanSymbol(rows)
			if err != nil {
				return err
			}
			out = append(out, sym)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, core.ErrPersistenceFailure("", err)
	}
	return out, nil
}

// AllChunksWithContent supports the full-text provider's lazy document
// frequency computation by returning every chunk's text.
func (r *ArtifactRepository) AllChunksWithContent(ctx context.Context) ([]*core.Chunk, error) {
	var out []*core.Chunk
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, `
			SELECT id, file_id, ordinal, kind, start_line, end_line, token_estimate, content, summary, created_at
			FROM chunks`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			c, err := scanChunk(rows)
			if err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, core.ErrPersistenceFailure("", err)
	}
	return out, nil
}

// --- low-level row helpers shared by the read path and the rollback path ---

func fetchFileByPath(ctx context.Context, q querier, relativePath string) (*core.FileState, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, relative_path, content_hash, size_bytes, mtime_ns, language, kind,
			fingerprint, indexed_at, is_deleted
		FROM file_state WHERE relative_path = ?`, relativePath)
	fs, err := scanFileState(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return fs, nil
}

func scanFileState(row interface{ Scan(dest ...any) error }) (*core.FileState, error) {
	var id, path, hash, language, kind, fingerprint string
	var size, mtime int64
	var indexedAt time.Time
	var isDeleted bool
	if err := row.Scan(&id, &path, &hash, &size, &mtime, &language, &kind, &fingerprint, &indexedAt, &isDeleted); err != nil {
		return nil, err
	}
	return &core.FileState{
		Id: core.FileId(id), RelativePath: path, ContentHash: hash, SizeBytes: size,
		MtimeNs: mtime, Language: language, Kind: kind, Fingerprint: fingerprint,
		IndexedAt: indexedAt, IsDeleted: isDeleted,
	}, nil
}

func fetchChunksForFile(ctx context.Context, q querier, fileID core.FileId) ([]*core.Chunk, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, file_id, ordinal, kind, start_line, end_line, token_estimate, content, summary, created_at
		FROM chunks WHERE file_id = ? ORDER BY ordinal`, string(fileID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*core.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanChunk(rows *sql.Rows) (*core.Chunk, error) {
	var id, fileID, kind, content string
	var ordinal int
	var startLine, endLine, tokenEstimate sql.NullInt64
	var summary sql.NullString
	var createdAt time.Time
	if err := rows.Scan(&id, &fileID, &ordinal, &kind, &startLine, &endLine, &tokenEstimate, &content, &summary, &createdAt); err != nil {
		return nil, err
	}
	c := &core.Chunk{
		Id: core.ChunkId(id), FileId: core.FileId(fileID), Ordinal: ordinal,
		Kind: core.ChunkKind(kind), Content: content, CreatedAt: createdAt,
	}
	if startLine.Valid {
		v := int(startLine.Int64)
		c.StartLine = &v
	}
	if endLine.Valid {
		v := int(endLine.Int64)
		c.EndLine = &v
	}
	if tokenEstimate.Valid {
		v := int(tokenEstimate.Int64)
		c.TokenEstimate = &v
	}
	if summary.Valid {
		c.Summary = &summary.String
	}
	return c, nil
}

func fetchEmbeddingsForChunks(ctx context.Context, q querier, chunkIDs []core.ChunkId) ([]*core.Embedding, error) {
	var out []*core.Embedding
	for _, id := range chunkIDs {
		rows, err := q.QueryContext(ctx, `
			SELECT id, chunk_id, model, dimension, vector, created_at FROM embeddings WHERE chunk_id = ?`, string(id))
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var embID, chunkID, model string
			var dim int
			var vecBlob []byte
			var createdAt time.Time
			if err := rows.Scan(&embID, &chunkID, &model, &dim, &vecBlob, &createdAt); err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, &core.Embedding{
				Id: core.EmbeddingId(embID), ChunkId: core.ChunkId(chunkID), Model: model,
				Dimension: dim, Vector: decodeVector(vecBlob), CreatedAt: createdAt,
			})
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return out, nil
}

func fetchLinksForChunks(ctx context.Context, q querier, chunkIDs []core.ChunkId) ([]*core.Link, error) {
	var out []*core.Link
	for _, id := range chunkIDs {
		rows, err := q.QueryContext(ctx, `
			SELECT id, source_chunk_id, target_file_id, target_chunk_id, type, label, score, created_at
			FROM links WHERE source_chunk_id = ?`, string(id))
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			l, err := scanLink(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, l)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return out, nil
}

func scanLink(rows *sql.Rows) (*core.Link, error) {
	var id, sourceChunkID, targetFileID, linkType, label string
	var targetChunkID sql.NullString
	var score sql.NullFloat64
	var createdAt time.Time
	if err := rows.Scan(&id, &sourceChunkID, &targetFileID, &targetChunkID, &linkType, &label, &score, &createdAt); err != nil {
		return nil, err
	}
	l := &core.Link{
		Id: core.LinkId(id), SourceChunkId: core.ChunkId(sourceChunkID), TargetFileId: core.FileId(targetFileID),
		Type: linkType, Label: label, CreatedAt: createdAt,
	}
	if targetChunkID.Valid {
		v := core.ChunkId(targetChunkID.String)
		l.TargetChunkId = &v
	}
	if score.Valid {
		l.Score = &score.Float64
	}
	return l, nil
}

func fetchSymbolsForFile(ctx context.Context, q querier, fileID core.FileId) ([]*core.Symbol, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, file_id, chunk_id, type, name, qualified_name, signature, start_line, end_line, language
		FROM symbols WHERE file_id = ?`, string(fileID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*core.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func scanSymbol(rows *sql.Rows) (*core.Symbol, error) {
	var id, fileID, chunkID, symType, name, language string
	var qualifiedName, signature sql.NullString
	var startLine, endLine int
	if err := rows.Scan(&id, &fileID, &chunkID, &symType, &name, &qualifiedName, &signature, &startLine, &endLine, &language); err != nil {
		return nil, err
	}
	sym := &core.Symbol{
		Id: core.SymbolId(id), FileId: core.FileId(fileID), ChunkId: core.ChunkId(chunkID),
		Type: core.SymbolType(symType), Name: name, StartLine: startLine, EndLine: endLine, Language: language,
	}
	if qualifiedName.Valid {
		sym.QualifiedName = &qualifiedName.String
	}
	if signature.Valid {
		sym.Signature = &signature.String
	}
	return sym, nil
}

// deleteFileDependents removes symbols, links, embeddings, and (if present)
// usage_metrics for every chunk owned by fileID, implementing the "delete
// all dependents, then the owner" contract from spec.md §9's resolved open
// question.
func deleteFileDependents(ctx context.Context, tx *sql.Tx, fileID core.FileId) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM symbols WHERE chunk_id IN (SELECT id FROM chunks WHERE file_id = ?)`, string(fileID)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM links WHERE source_chunk_id IN (SELECT id FROM chunks WHERE file_id = ?)`, string(fileID)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM embeddings WHERE chunk_id IN (SELECT id FROM chunks WHERE file_id = ?)`, string(fileID)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM usage_metrics WHERE task_id IN (SELECT id FROM chunks WHERE file_id = ?)`, string(fileID)); err != nil {
		// usage_metrics keys off task_id, not file_id; this delete is a
		// best-effort no-op for the indexing path (it never inserts rows
		// keyed by a chunk id there) kept only so a future schema change
		// that does link usage_metrics to chunks degrades safely.
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE file_id = ?`, string(fileID))
	return err
}

func insertFileState(ctx context.Context, tx *sql.Tx, f *core.FileState) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO file_state (id, relative_path, content_hash, size_bytes, mtime_ns, language, kind,
			fingerprint, indexed_at, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(f.Id), f.RelativePath, f.ContentHash, f.SizeBytes, f.MtimeNs, f.Language, f.Kind,
		f.Fingerprint, f.IndexedAt, f.IsDeleted)
	return err
}

func insertChunk(ctx context.Context, tx *sql.Tx, c *core.Chunk) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO chunks (id, file_id, ordinal, kind, start_line, end_line, token_estimate, content, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(c.Id), string(c.FileId), c.Ordinal, string(c.Kind), nullableInt(c.StartLine),
		nullableInt(c.EndLine), nullableInt(c.TokenEstimate), c.Content, nullableString(c.Summary), c.CreatedAt)
	return err
}

func insertEmbedding(ctx context.Context, tx *sql.Tx, e *core.Embedding) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO embeddings (id, chunk_id, model, dimension, vector, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(e.Id), string(e.ChunkId), e.Model, e.Dimension, encodeVector(e.Vector), e.CreatedAt)
	return err
}

func insertLink(ctx context.Context, tx *sql.Tx, l *core.Link) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO links (id, source_chunk_id, target_file_id, target_chunk_id, type, label, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(l.Id), string(l.SourceChunkId), string(l.TargetFileId), nullableChunkID(l.TargetChunkId),
		l.Type, l.Label, nullableFloat(l.Score), l.CreatedAt)
	return err
}

func insertSymbol(ctx context.Context, tx *sql.Tx, sym *core.Symbol) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO symbols (id, file_id, chunk_id, type, name, qualified_name, signature, start_line, end_line, language)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(sym.Id), string(sym.FileId), string(sym.ChunkId), string(sym.Type), sym.Name,
		nullableString(sym.QualifiedName), nullableString(sym.Signature), sym.StartLine, sym.EndLine, sym.Language)
	return err
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableChunkID(v *core.ChunkId) any {
	if v == nil {
		return nil
	}
	return string(*v)
}

// encodeVector/decodeVector round-trip a float64 vector losslessly as a
// fixed-width little-endian BLOB, the "equivalent binary layout" option
// from §6's persisted-state layout (chosen over the "[f1,f2,...]" text
// encoding since every vector here only ever crosses the storage boundary,
// never a human-facing one).
func encodeVector(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float64 {
	n := len(buf) / 8
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out
}
