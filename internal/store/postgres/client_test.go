package postgres

import "testing"

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  ClientConfig
		want string
	}{
		{
			name: "explicit dsn wins",
			cfg:  ClientConfig{DSN: "postgres://x@y/z", Host: "ignored"},
			want: "postgres://x@y/z",
		},
		{
			name: "defaults",
			cfg:  ClientConfig{Host: "db", Database: "polypaper", User: "u", Password: "p"},
			want: "postgres://u:p@db:5432/polypaper?sslmode=disable",
		},
		{
			name: "password is escaped",
			cfg:  ClientConfig{Host: "db", Database: "d", User: "u", Password: "p@ss/word"},
			want: "postgres://u:p%40ss%2Fword@db:5432/d?sslmode=disable",
		},
		{
			name: "explicit port and ssl",
			cfg:  ClientConfig{Host: "db", Port: 6543, Database: "d", User: "u", Password: "p", SSLMode: "require"},
			want: "postgres://u:p@db:6543/d?sslmode=require",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DSN(tt.cfg); got != tt.want {
				t.Fatalf("DSN = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	names, err := migrationNames()
	if err != nil {
		t.Fatalf("migrationNames: %v", err)
	}
	if len(names) == 0 || names[0] != "001_init.sql" {
		t.Fatalf("migrations = %v", names)
	}
}
