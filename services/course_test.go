package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignation/worldcourse-backend/models"
)

func TestCreateCourseSlugs(t *testing.T) {
	db := openTestDB(t)
	teacher := createUser(t, db, models.RoleTeacher)
	actor := Actor{ID: teacher.ID, Role: models.RoleTeacher}

	first, err := CreateCourse(ctx, db, actor, CourseParams{Title: "Intro to Go!", Subject: "cs"})
	require.NoError(t, err)
	assert.Equal(t, "intro-to-go", first.Slug)
	assert.Equal(t, teacher.ID, first.InstructorID)

	second, err := CreateCourse(ctx, db, actor, CourseParams{Title: "Intro to Go"})
	require.NoError(t, err)
	assert.Equal(t, "intro-to-go-2", second.Slug)

	student := createUser(t, db, models.RoleStudent)
	_, err = CreateCourse(ctx, db, Actor{ID: student.ID, Role: models.RoleStudent}, CourseParams{Title: "Nope"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListCourses(t *testing.T) {
	db := openTestDB(t)
	teacher := createUser(t, db, models.RoleTeacher)
	actor := Actor{ID: teacher.ID, Role: models.RoleTeacher}
	for _, p := range []CourseParams{
		{Title: "Algebra", Subject: "math", Level: "beginner", Published: true},
		{Title: "Calculus", Subject: "math", Level: "advanced", Published: true},
		{Title: "Biology", Subject: "science", Published: true},
		{Title: "Secret draft", Subject: "math"},
	} {
		_, err := CreateCourse(ctx, db, actor, p)
		require.NoError(t, err)
	}

	list, total, err := ListCourses(ctx, db, CourseFilter{Subject: "math", PublishedOnly: true, Page: Page{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = ListCourses(ctx, db, CourseFilter{Search: "calc", Page: Page{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Calculus", list[0].Title)

	list, total, err = ListCourses(ctx, db, CourseFilter{Page: Page{Page: 2, Limit: 3}})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, list, 1)
}

func TestUpdateAndDeleteCourse(t *testing.T) {
	c := newClassroom(t)
	other := createUser(t, c.db, models.RoleTeacher)

	_, err := UpdateCourse(ctx, c.db, Actor{ID: other.ID, Role: models.RoleTeacher}, c.course.ID, CourseParams{Title: "Hijack"})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := UpdateCourse(ctx, c.db, c.teacherActor(), c.course.ID, CourseParams{Title: "Modern Physics", Price: 49, Published: true})
	require.NoError(t, err)
	assert.Equal(t, "modern-physics", updated.Slug)
	assert.Equal(t, 49.0, updated.Price)

	createAssessment(t, c.db, c.course, models.KindQuiz, []models.Question{mcq(0, "A", 1)})
	require.NoError(t, DeleteCourse(ctx, c.db, c.teacherActor(), c.course.ID))

	_, err = GetCourse(ctx, c.db, c.course.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	var left int64
	c.db.Model(&models.Assessment{}).Where("course_id = ?", c.course.ID).Count(&left)
	assert.Zero(t, left)
}

func TestCourseStudentsAndProgress(t *testing.T) {
	c := newClassroom(t)

	list, err := CourseStudents(ctx, c.db, c.teacherActor(), c.course.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.student.ID, list[0].User.ID)

	_, err = CourseStudents(ctx, c.db, Actor{ID: c.student.ID, Role: models.RoleStudent}, c.course.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	e, err := UpdateProgress(ctx, c.db, c.student.ID, c.course.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, 60.0, e.Progress)

	_, err = UpdateProgress(ctx, c.db, c.student.ID, c.course.ID, 101)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = UpdateProgress(ctx, c.db, uuid.New(), c.course.ID, 10)
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestPlaceOrder(t *testing.T) {
	db := openTestDB(t)
	teacher := createUser(t, db, models.RoleTeacher)
	student := createUser(t, db, models.RoleStudent)
	a := createCourse(t, db, teacher)
	b := createCourse(t, db, teacher)
	require.NoError(t, db.Model(a).Update("price", 30).Error)
	require.NoError(t, db.Model(b).Update("price", 20).Error)

	order, enrollments, err := PlaceOrder(ctx, db, student.ID, OrderParams{CourseIDs: []uuid.UUID{a.ID, b.ID, a.ID}})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, order.Status)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, 50.0, order.Total)
	assert.Len(t, enrollments, 2)

	ok, err := IsEnrolled(ctx, db, a.ID, student.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// already owned courses are skipped
	c := createCourse(t, db, teacher)
	order, enrollments, err = PlaceOrder(ctx, db, student.ID, OrderParams{CourseIDs: []uuid.UUID{a.ID, c.ID}})
	require.NoError(t, err)
	assert.Len(t, order.Items, 1)
	assert.Len(t, enrollments, 1)

	_, _, err = PlaceOrder(ctx, db, student.ID, OrderParams{CourseIDs: []uuid.UUID{a.ID}})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, _, err = PlaceOrder(ctx, db, student.ID, OrderParams{CourseIDs: []uuid.UUID{uuid.New()}})
	assert.ErrorIs(t, err, ErrNotFound)

	orders, err := ListOrders(ctx, db, student.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	list, err := ListEnrollments(ctx, db, student.ID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}
