/*
Copyright 2025 Cloud Conveyor Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package store_test

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zprobst/cloud-conveyor/internal/store"
)

var _ = Describe("PostgresStore", func() {
	var (
		ctx  context.Context
		st   *store.PostgresStore
		db   *sqlx.DB
		mock sqlmock.Sqlmock
	)

	BeforeEach(func() {
		ctx = context.Background()

		mockDB, mockSQL, err := sqlmock.New()
		Expect(err).NotTo(HaveOccurred())

		db = sqlx.NewDb(mockDB, "sqlmock")
		mock = mockSQL
		st = store.NewPostgresStore(db)
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	Describe("Save", func() {
		It("upserts the snapshot's JSON payload keyed by pipeline ID", func() {
			snap := samplePipelineSnapshot()
			payload, err := json.Marshal(snap)
			Expect(err).NotTo(HaveOccurred())

			mock.ExpectExec(`INSERT INTO pipeline_snapshots`).
				WithArgs(snap.ID, payload).
				WillReturnResult(sqlmock.NewResult(0, 1))

			Expect(st.Save(ctx, snap)).To(Succeed())
		})

		It("wraps the underlying error when the write fails", func() {
			snap := samplePipelineSnapshot()
			mock.ExpectExec(`INSERT INTO pipeline_snapshots`).
				WillReturnError(errors.New("connection reset"))

			err := st.Save(ctx, snap)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(snap.ID))
		})
	})

	Describe("Load", func() {
		It("returns false when no row exists for the ID", func() {
			mock.ExpectQuery(`SELECT payload FROM pipeline_snapshots`).
				WithArgs("missing").
				WillReturnRows(sqlmock.NewRows([]string{"payload"}))

			_, ok, err := st.Load(ctx, "missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("unmarshals the stored payload back into a snapshot", func() {
			snap := samplePipelineSnapshot()
			payload, err := json.Marshal(snap)
			Expect(err).NotTo(HaveOccurred())

			mock.ExpectQuery(`SELECT payload FROM pipeline_snapshots`).
				WithArgs(snap.ID).
				WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

			got, ok, err := st.Load(ctx, snap.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(got.ID).To(Equal(snap.ID))
		})
	})

	Describe("Delete", func() {
		It("removes the row for the given ID", func() {
			mock.ExpectExec(`DELETE FROM pipeline_snapshots`).
				WithArgs("pipeline-1").
				WillReturnResult(sqlmock.NewResult(0, 1))

			Expect(st.Delete(ctx, "pipeline-1")).To(Succeed())
		})
	})

	Describe("ListIDs", func() {
		It("returns every persisted pipeline ID", func() {
			mock.ExpectQuery(`SELECT id FROM pipeline_snapshots`).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("pipeline-1").AddRow("pipeline-2"))

			ids, err := st.ListIDs(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"pipeline-1", "pipeline-2"}))
		})
	})
})

func samplePipelineSnapshot() store.PipelineSnapshot {
	return store.PipelineSnapshot{ID: "pipeline-1"}
}
