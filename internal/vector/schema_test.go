package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/weaviate/weaviate/entities/models"
)

type MockSchemaClient struct {
	CreatedClass    *models.Class
	ExistingClass   *models.Class
	AddedProperties []*models.Property
	ExistsErr       error
}

func (m *MockSchemaClient) ClassExists(ctx context.Context, className string) (bool, error) {
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}
	return m.ExistingClass != nil, nil
}

func (m *MockSchemaClient) CreateClass(ctx context.Context, class *models.Class) error {
	m.CreatedClass = class
	return nil
}

func (m *MockSchemaClient) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return m.ExistingClass, nil
}

func (m *MockSchemaClient) AddProperty(ctx context.Context, className string, property *models.Property) error {
	m.AddedProperties = append(m.AddedProperties, property)
	return nil
}

func TestEnsureSchema_CreatesClass(t *testing.T) {
	client := &MockSchemaClient{}
	if err := EnsureSchema(context.Background(), client); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	if client.CreatedClass == nil {
		t.Fatal("Class not created")
	}
	if client.CreatedClass.Class != ClassName {
		t.Errorf("Wrong class name: %s", client.CreatedClass.Class)
	}
	// Vectors come from the pipeline, never from Weaviate modules.
	if client.CreatedClass.Vectorizer != "none" {
		t.Errorf("Vectorizer should be none, got %s", client.CreatedClass.Vectorizer)
	}

	expectedProps := map[string]string{
		"content":        "text",
		"url":            "string",
		"chunkIndex":     "int",
		"totalChunks":    "int",
		"embeddingModel": "string",
	}

	found := make(map[string]bool)
	for _, prop := range client.CreatedClass.Properties {
		found[prop.Name] = true
		if expectedType, ok := expectedProps[prop.Name]; ok {
			if len(prop.DataType) == 0 || prop.DataType[0] != expectedType {
				t.Errorf("Property %s has wrong DataType: %v (expected %s)", prop.Name, prop.DataType, expectedType)
			}
		}
	}
	for name := range expectedProps {
		if !found[name] {
			t.Errorf("Missing property %s", name)
		}
	}
}

func TestEnsureSchema_AddsMissingProperties(t *testing.T) {
	existingClass := &models.Class{
		Class: ClassName,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "url", DataType: []string{"string"}},
		},
	}

	client := &MockSchemaClient{ExistingClass: existingClass}

	if err := EnsureSchema(context.Background(), client); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	if client.CreatedClass != nil {
		t.Fatal("Should not recreate class if it exists")
	}

	addedNames := make(map[string]bool)
	for _, p := range client.AddedProperties {
		addedNames[p.Name] = true
	}

	if !addedNames["chunkIndex"] {
		t.Error("Missing 'chunkIndex' property")
	}
	if !addedNames["totalChunks"] {
		t.Error("Missing 'totalChunks' property")
	}
	if !addedNames["embeddingModel"] {
		t.Error("Missing 'embeddingModel' property")
	}
	if addedNames["content"] {
		t.Error("Should not re-add existing 'content' property")
	}
}

func TestEnsureSchema_CompleteClassUntouched(t *testing.T) {
	existingClass := &models.Class{
		Class: ClassName,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "url", DataType: []string{"string"}},
			{Name: "chunkIndex", DataType: []string{"int"}},
			{Name: "totalChunks", DataType: []string{"int"}},
			{Name: "embeddingModel", DataType: []string{"string"}},
		},
	}

	client := &MockSchemaClient{ExistingClass: existingClass}

	if err := EnsureSchema(context.Background(), client); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if client.CreatedClass != nil {
		t.Error("Should not recreate class")
	}
	if len(client.AddedProperties) != 0 {
		t.Errorf("Should not add properties, added %d", len(client.AddedProperties))
	}
}

func TestEnsureSchema_ExistsCheckError(t *testing.T) {
	client := &MockSchemaClient{ExistsErr: errors.New("weaviate unreachable")}
	if err := EnsureSchema(context.Background(), client); err == nil {
		t.Fatal("expected error")
	}
}
