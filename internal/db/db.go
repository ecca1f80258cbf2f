package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Database struct {
	Conn *sql.DB
}

func NewDatabase(dsn string) (*Database, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)
	return &Database{Conn: conn}, nil
}

// migrations is the schema in creation order. Child rows of a user or an
// advert cascade away with their parent; categories with adverts stay
// delete-protected.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS si_roles (
            id SERIAL PRIMARY KEY,
            name VARCHAR(45) UNIQUE NOT NULL
        )`,

	`INSERT INTO si_roles (id, name)
            VALUES (1, 'ROLE_ADMIN'), (2, 'ROLE_USER')
            ON CONFLICT (id) DO NOTHING`,

	`CREATE TABLE IF NOT EXISTS si_users (
            id SERIAL PRIMARY KEY,
            login VARCHAR(45) UNIQUE NOT NULL,
            password VARCHAR(255) NOT NULL,
            role_id INT NOT NULL DEFAULT 2 REFERENCES si_roles(id)
        )`,

	`CREATE TABLE IF NOT EXISTS si_profiles (
            id SERIAL PRIMARY KEY,
            user_id INT UNIQUE NOT NULL REFERENCES si_users(id),
            name VARCHAR(45) NOT NULL,
            surname VARCHAR(45) NOT NULL,
            email VARCHAR(190) UNIQUE NOT NULL
        )`,

	`CREATE TABLE IF NOT EXISTS si_categories (
            id SERIAL PRIMARY KEY,
            name VARCHAR(45) NOT NULL
        )`,

	`CREATE TABLE IF NOT EXISTS si_adverts (
            id SERIAL PRIMARY KEY,
            user_id INT NOT NULL REFERENCES si_users(id) ON DELETE CASCADE,
            category_id INT NOT NULL REFERENCES si_categories(id),
            topic VARCHAR(45) NOT NULL,
            city VARCHAR(45) NOT NULL,
            price NUMERIC(10,2) NOT NULL,
            type VARCHAR(10) NOT NULL CHECK (type IN ('purchase', 'sale', 'return', 'swap')),
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            modified_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,

	`CREATE TABLE IF NOT EXISTS si_advert_photos (
            id SERIAL PRIMARY KEY,
            advert_id INT NOT NULL REFERENCES si_adverts(id) ON DELETE CASCADE,
            title VARCHAR(45),
            filepath VARCHAR(255) NOT NULL
        )`,

	`CREATE TABLE IF NOT EXISTS si_conversations (
            id SERIAL PRIMARY KEY,
            topic VARCHAR(100) NOT NULL,
            owner_id INT NOT NULL REFERENCES si_users(id) ON DELETE CASCADE,
            user_id INT NOT NULL REFERENCES si_users(id) ON DELETE CASCADE,
            advert_id INT NOT NULL REFERENCES si_adverts(id) ON DELETE CASCADE
        )`,

	`CREATE TABLE IF NOT EXISTS si_messages (
            id SERIAL PRIMARY KEY,
            conversation_id INT NOT NULL REFERENCES si_conversations(id) ON DELETE CASCADE,
            user_id INT NOT NULL REFERENCES si_users(id) ON DELETE CASCADE,
            content TEXT NOT NULL,
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
}

func (d *Database) AutoMigrate() error {
	for _, query := range migrations {
		_, err := d.Conn.Exec(query)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
