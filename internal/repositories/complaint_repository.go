package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"grievanceBack/internal/models"
)

type ComplaintRepository struct {
	DB *sql.DB
}

const complaintColumns = `id, complaint_id, name, mobile, complaint_details, category, status, created_at, updated_at`

var mobileSeparators = regexp.MustCompile(`[-.\s()]`)

func scanComplaint(row interface{ Scan(...any) error }) (models.Complaint, error) {
	var c models.Complaint
	err := row.Scan(&c.ID, &c.ComplaintID, &c.Name, &c.Mobile, &c.Details, &c.Category, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreateComplaint inserts the complaint together with its initial history row.
func (r *ComplaintRepository) CreateComplaint(ctx context.Context, c models.Complaint) (models.Complaint, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Complaint{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO complaints (complaint_id, name, mobile, complaint_details, category, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ComplaintID, c.Name, c.Mobile, c.Details, c.Category, models.StatusRegistered)
	if err != nil {
		return models.Complaint{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO status_history (complaint_id, new_status, notes)
		VALUES (?, ?, ?)`,
		c.ComplaintID, models.StatusRegistered, "Complaint registered")
	if err != nil {
		return models.Complaint{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Complaint{}, err
	}

	return r.GetByComplaintID(ctx, c.ComplaintID)
}

func (r *ComplaintRepository) GetByComplaintID(ctx context.Context, complaintID string) (models.Complaint, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE complaint_id = ?`, complaintID)
	c, err := scanComplaint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Complaint{}, models.ErrComplaintNotFound
	}
	return c, err
}

// GetByMobile matches flexibly: exact first, then the last ten digits,
// then a substring match. An exact hit wins outright; later strategies
// only add complaints not seen before.
func (r *ComplaintRepository) GetByMobile(ctx context.Context, mobile string) ([]models.Complaint, error) {
	clean := mobileSeparators.ReplaceAllString(mobile, "")

	type strategy struct {
		query string
		arg   string
	}
	strategies := []strategy{
		{`SELECT ` + complaintColumns + ` FROM complaints WHERE mobile = ? ORDER BY created_at DESC`, clean},
	}
	if len(clean) >= 10 {
		strategies = append(strategies, strategy{
			`SELECT ` + complaintColumns + ` FROM complaints WHERE SUBSTR(mobile, -10) = ? ORDER BY created_at DESC`,
			clean[len(clean)-10:],
		})
	}
	strategies = append(strategies, strategy{
		`SELECT ` + complaintColumns + ` FROM complaints WHERE mobile LIKE ? ORDER BY created_at DESC`,
		"%" + clean + "%",
	})

	var complaints []models.Complaint
	seen := make(map[string]bool)

	for i, s := range strategies {
		rows, err := r.DB.QueryContext(ctx, s.query, s.arg)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			c, err := scanComplaint(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			if !seen[c.ComplaintID] {
				complaints = append(complaints, c)
				seen[c.ComplaintID] = true
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		if i == 0 && len(complaints) > 0 {
			break
		}
	}

	return complaints, nil
}

// UpdateStatus moves the complaint to newStatus and appends a history row
// in the same transaction.
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, complaintID, newStatus, notes string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var oldStatus string
	err = tx.QueryRowContext(ctx, `SELECT status FROM complaints WHERE complaint_id = ?`, complaintID).Scan(&oldStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrComplaintNotFound
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE complaints SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE complaint_id = ?`, newStatus, complaintID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO status_history (complaint_id, old_status, new_status, notes)
		VALUES (?, ?, ?, ?)`, complaintID, oldStatus, newStatus, notes)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *ComplaintRepository) GetStatusHistory(ctx context.Context, complaintID string) ([]models.StatusChange, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, complaint_id, COALESCE(old_status, ''), new_status, COALESCE(notes, ''), changed_at
		FROM status_history
		WHERE complaint_id = ?
		ORDER BY changed_at ASC, id ASC`, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.StatusChange
	for rows.Next() {
		var h models.StatusChange
		if err := rows.Scan(&h.ID, &h.ComplaintID, &h.OldStatus, &h.NewStatus, &h.Notes, &h.ChangedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *ComplaintRepository) GetAllComplaints(ctx context.Context) ([]models.Complaint, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+complaintColumns+` FROM complaints ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var complaints []models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, c)
	}
	return complaints, rows.Err()
}

// DeleteComplaint removes the history rows first because of the foreign key.
func (r *ComplaintRepository) DeleteComplaint(ctx context.Context, complaintID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM status_history WHERE complaint_id = ?`, complaintID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM complaints WHERE complaint_id = ?`, complaintID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrComplaintNotFound
	}

	return tx.Commit()
}

func (r *ComplaintRepository) GetStatistics(ctx context.Context) (models.ComplaintStats, error) {
	var stats models.ComplaintStats

	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM complaints`).Scan(&stats.TotalComplaints)
	if err != nil {
		return stats, err
	}

	err = r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM complaints WHERE created_at >= datetime('now', '-7 days')`,
	).Scan(&stats.RecentComplaints)
	if err != nil {
		return stats, err
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM complaints GROUP BY status`)
	if err != nil {
		return stats, err
	}
	for rows.Next() {
		var sc models.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			rows.Close()
			return stats, err
		}
		stats.StatusDistribution = append(stats.StatusDistribution, sc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return stats, err
	}
	rows.Close()

	rows, err = r.DB.QueryContext(ctx, `SELECT category, COUNT(*) FROM complaints GROUP BY category`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var cc models.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return stats, err
		}
		stats.CategoryDistribution = append(stats.CategoryDistribution, cc)
	}
	return stats, rows.Err()
}
