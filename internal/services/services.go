package services

import (
	"github.com/praveen001/planner/internal/config"
	"github.com/praveen001/planner/internal/db"
	project2 "github.com/praveen001/planner/internal/services/project"
	task2 "github.com/praveen001/planner/internal/services/task"
	user2 "github.com/praveen001/planner/internal/services/user"
)

type Services struct {
	User    *user2.UserService
	Project *project2.ProjectService
	Task    *task2.TaskService
}

func NewServices(conf *config.Config) *Services {
	dbconn := db.NewConn(conf)

	projectSvc := project2.NewProjectService(project2.NewProjectRepo(dbconn))

	return &Services{
		User:    user2.NewUserService(user2.NewUserRepo(dbconn)),
		Project: projectSvc,
		Task:    task2.NewTaskService(task2.NewTaskRepo(dbconn), projectSvc),
	}
}
