package crm

import "time"

type leadRow struct {
	Name      string    `gorm:"column:name;primaryKey;size:140"`
	EmailID   string    `gorm:"column:email_id;size:140;index"`
	LeadName  string    `gorm:"column:lead_name;size:140"`
	Phone     string    `gorm:"column:phone;size:140"`
	Status    string    `gorm:"column:status;size:32;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (leadRow) TableName() string { return "leads" }

type customerRow struct {
	Name         string    `gorm:"column:name;primaryKey;size:140"`
	CustomerName string    `gorm:"column:customer_name;size:140"`
	LeadName     string    `gorm:"column:lead_name;size:140;index"`
	EmailID      string    `gorm:"column:email_id;size:140"`
	Phone        string    `gorm:"column:phone;size:140"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (customerRow) TableName() string { return "customers" }

type commentRow struct {
	Name             string    `gorm:"column:name;primaryKey;size:140"`
	ReferenceDoctype string    `gorm:"column:reference_doctype;size:32;index:idx_comment_reference"`
	ReferenceName    string    `gorm:"column:reference_name;size:140;index:idx_comment_reference"`
	Content          string    `gorm:"column:content;type:text"`
	CommentBy        string    `gorm:"column:comment_by;size:140"`
	CommentEmail     string    `gorm:"column:comment_email;size:140"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (commentRow) TableName() string { return "comments" }

func leadRowFrom(l Lead) leadRow {
	return leadRow{
		Name:      l.Name,
		EmailID:   l.EmailID,
		LeadName:  l.LeadName,
		Phone:     l.Phone,
		Status:    l.Status,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func (r leadRow) toLead() Lead {
	return Lead{
		Name:      r.Name,
		EmailID:   r.EmailID,
		LeadName:  r.LeadName,
		Phone:     r.Phone,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func customerRowFrom(c Customer) customerRow {
	return customerRow{
		Name:         c.Name,
		CustomerName: c.CustomerName,
		LeadName:     c.LeadName,
		EmailID:      c.EmailID,
		Phone:        c.Phone,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (r customerRow) toCustomer() Customer {
	return Customer{
		Name:         r.Name,
		CustomerName: r.CustomerName,
		LeadName:     r.LeadName,
		EmailID:      r.EmailID,
		Phone:        r.Phone,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (r commentRow) toComment() Comment {
	return Comment{
		Name:             r.Name,
		ReferenceDoctype: Doctype(r.ReferenceDoctype),
		ReferenceName:    r.ReferenceName,
		Content:          r.Content,
		CommentBy:        r.CommentBy,
		CommentEmail:     r.CommentEmail,
		CreatedAt:        r.CreatedAt,
	}
}
